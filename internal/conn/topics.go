package conn

import "fmt"

// Topic templates. The device identifier substitutes for %s in the script
// and state topics; block topics are keyed by block name, not device.
const (
	scriptTopicPattern = "distantsignal/%s/script"
	stateTopicPattern  = "turnout/%s/state"
	blockTopicPattern  = "block/%s/state"
)

// Topics is the set of subscriptions computed from the device identifier
// and the block names of the currently compiled script. Recomputed whenever
// a new script is accepted, since a new script may define different blocks.
type Topics struct {
	Script string
	State  string
	Blocks map[string]string // block name -> topic
}

// ComputeTopics builds the subscription set for a device and block list.
func ComputeTopics(deviceID string, blockNames []string) Topics {
	t := Topics{
		Script: fmt.Sprintf(scriptTopicPattern, deviceID),
		State:  fmt.Sprintf(stateTopicPattern, deviceID),
		Blocks: make(map[string]string, len(blockNames)),
	}
	for _, name := range blockNames {
		t.Blocks[name] = fmt.Sprintf(blockTopicPattern, name)
	}
	return t
}

// All returns every topic in the set, script and state first.
func (t Topics) All() []string {
	out := make([]string, 0, 2+len(t.Blocks))
	out = append(out, t.Script, t.State)
	for _, topic := range t.Blocks {
		out = append(out, topic)
	}
	return out
}

// BlockForTopic resolves a block-state topic back to its block name.
func (t Topics) BlockForTopic(topic string) (string, bool) {
	for name, bt := range t.Blocks {
		if bt == topic {
			return name, true
		}
	}
	return "", false
}
