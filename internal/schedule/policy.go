package schedule

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/mqtt"
	"github.com/sweeney/diy-hub/internal/topics"
)

// Policy selects how a transition reaches the devices.
type Policy string

const (
	// PolicyRepublish publishes demo/silent and lets the router handle them.
	// Every listening device follows, but nothing happens under bus partition.
	PolicyRepublish Policy = "republish"

	// PolicyDirect drives the local actuator without the bus.
	PolicyDirect Policy = "direct"
)

// ParsePolicy validates a policy name. Empty means PolicyRepublish.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyRepublish:
		return PolicyRepublish, nil
	case PolicyDirect:
		return PolicyDirect, nil
	}
	return "", fmt.Errorf("schedule: unknown policy %q (want %q or %q)", s, PolicyRepublish, PolicyDirect)
}

// Republish publishes the two system topics that put every device into
// the new mode, retained at QoS 0.
type Republish struct {
	Pub mqtt.Publisher
	NS  topics.Namespace
}

// Apply publishes silent then demo for Day, demo then silent for Night.
func (r Republish) Apply(s State) {
	type msg struct{ name, payload string }
	msgs := []msg{{topics.Silent, topics.PayloadOff}, {topics.Demo, topics.PayloadOn}}
	if s == Night {
		msgs = []msg{{topics.Demo, topics.PayloadOff}, {topics.Silent, topics.PayloadOn}}
	}
	for _, m := range msgs {
		topic := r.NS.System(m.name)
		if err := r.Pub.Publish(topic, []byte(m.payload), topics.AnnounceQoS, true); err != nil {
			log.Warn().Err(err).Str("topic", topic).Str("state", s.String()).Msg("day/night publish failed")
		}
	}
}

// Silencer is the part of the pulse state machine Direct drives.
type Silencer interface {
	SilentMode(on bool)
}

// Direct silences the local actuator at night.
type Direct struct {
	Target Silencer
}

// Apply silences for Night and unsilences for Day.
func (d Direct) Apply(s State) {
	d.Target.SilentMode(s == Night)
}
