package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// RGB is a 24-bit color parsed from the script's "#RRGGBB" notation.
type RGB struct {
	R, G, B uint8
}

// ParseRGB parses a color value from a script field. The leading "#" is
// optional.
func ParseRGB(v any) (RGB, error) {
	s, ok := v.(string)
	if !ok {
		return RGB{}, fmt.Errorf("%w: color must be a string, got %T", apperr.ErrMalformedDocument, v)
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: color expected as [#]RRGGBB but was %q", apperr.ErrMalformedDocument, s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: color expected as [#]RRGGBB but was %q", apperr.ErrMalformedDocument, s)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// Hex returns the color as a packed 0xRRGGBB value.
func (c RGB) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText renders the color in the script's own notation, so debug
// output round-trips through the same format scripts use.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
