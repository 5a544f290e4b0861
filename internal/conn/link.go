package conn

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// HostLink is a Link for hosts whose operating system manages the physical
// network: bring-up is a no-op and the link is always up.
type HostLink struct{}

func (HostLink) BringUp(context.Context) error { return nil }
func (HostLink) IsUp() bool                    { return true }

// ProbeLink is a Link that considers the network up when a TCP dial to the
// probe address succeeds. Probe results are cached for Interval so polling
// every tick stays cheap.
type ProbeLink struct {
	Address  string
	Timeout  time.Duration
	Interval time.Duration

	lastProbe time.Time
	lastUp    bool
}

// BringUp validates the probe address. A bad address is an immediate,
// retryable rejection.
func (p *ProbeLink) BringUp(context.Context) error {
	if p.Address == "" {
		return fmt.Errorf("%w: no probe address configured", apperr.ErrLinkFault)
	}
	if _, _, err := net.SplitHostPort(p.Address); err != nil {
		return fmt.Errorf("%w: bad probe address %q: %v", apperr.ErrLinkFault, p.Address, err)
	}
	return nil
}

// IsUp dials the probe address, at most once per Interval.
func (p *ProbeLink) IsUp() bool {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if time.Since(p.lastProbe) < interval {
		return p.lastUp
	}
	p.lastProbe = time.Now()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c, err := net.DialTimeout("tcp", p.Address, timeout)
	if err != nil {
		p.lastUp = false
		return false
	}
	_ = c.Close()
	p.lastUp = true
	return true
}
