package topics

import (
	"errors"
	"fmt"
)

// Kind is the role of a downstream peer.
type Kind string

const (
	KindSensor Kind = "sensor"
	KindClock  Kind = "clock"
	KindLight  Kind = "light"
	KindAlarm  Kind = "alarm"
)

// ErrInvalidPeer is returned by Peer.Validate.
var ErrInvalidPeer = errors.New("topics: invalid peer")

// Peer is a downstream device that is told its location at startup.
type Peer struct {
	Name     string `yaml:"name"`
	Kind     Kind   `yaml:"kind"`
	Location string `yaml:"location"`
}

// Validate checks the peer can be announced.
func (p Peer) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPeer)
	}
	switch p.Kind {
	case KindSensor, KindClock, KindLight, KindAlarm:
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidPeer, p.Name, p.Kind)
	}
	return nil
}

// DefaultPeers is the house's device roster.
var DefaultPeers = []Peer{
	{Name: "choke", Kind: KindSensor, Location: "diy/main/living"},
	{Name: "cloud", Kind: KindSensor, Location: "diy/main/garage"},
	{Name: "cran", Kind: KindSensor, Location: "diy/upper/study"},
	{Name: "tay", Kind: KindClock, Location: "diy/main/living"},
	{Name: "bar", Kind: KindClock, Location: "diy/upper/study"},
	{Name: "bil", Kind: KindClock, Location: "diy/upper/guest"},
	{Name: "bear", Kind: KindLight, Location: "diy/main/garage"},
	{Name: "pink", Kind: KindAlarm, Location: "diy/main/garage"},
	{Name: "humpy", Kind: KindAlarm, Location: "diy/upper/study"},
}
