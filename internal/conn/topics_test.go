package conn

import "testing"

func TestComputeTopics(t *testing.T) {
	topics := ComputeTopics("t330", []string{"b330", "b331"})

	if topics.Script != "distantsignal/t330/script" {
		t.Errorf("script topic = %q", topics.Script)
	}
	if topics.State != "turnout/t330/state" {
		t.Errorf("state topic = %q", topics.State)
	}
	if got := topics.Blocks["b330"]; got != "block/b330/state" {
		t.Errorf("block topic = %q", got)
	}
	if len(topics.All()) != 4 {
		t.Errorf("All() = %v, want 4 topics", topics.All())
	}
}

func TestBlockForTopic(t *testing.T) {
	topics := ComputeTopics("t330", []string{"b330"})

	name, ok := topics.BlockForTopic("block/b330/state")
	if !ok || name != "b330" {
		t.Errorf("got %q, %v", name, ok)
	}
	if _, ok := topics.BlockForTopic("block/b999/state"); ok {
		t.Error("unknown topic must not resolve")
	}
}

func TestStateNames(t *testing.T) {
	if Init.String() != "init" || MqttLoop.String() != "mqtt_loop" {
		t.Error("state names wrong")
	}
	if State(99).String() != "unknown" {
		t.Error("out-of-range state must stringify as unknown")
	}
}
