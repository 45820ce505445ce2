package router

import (
	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/mqtt"
	"github.com/sweeney/diy-hub/internal/topics"
)

// Announcer publishes the canonical system state and the peer locations.
// It is idempotent and runs after every (re)connect.
type Announcer struct {
	ns       topics.Namespace
	peers    []topics.Peer
	location string
}

// NewAnnouncer creates an Announcer. Peers without a location are told
// the hub's own location.
func NewAnnouncer(ns topics.Namespace, peers []topics.Peer, location string) *Announcer {
	return &Announcer{ns: ns, peers: peers, location: location}
}

// Announce publishes every system default, then every peer setup topic,
// retained at QoS 0. Publish failures are logged and skipped. Returns the
// number of system and peer publishes handed to the bus.
func (a *Announcer) Announce(pub mqtt.Publisher) (system, peers int) {
	for _, d := range topics.SystemDefaults {
		topic := a.ns.System(d.Name)
		if err := pub.Publish(topic, []byte(d.Payload), topics.AnnounceQoS, true); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("announce system topic failed")
			continue
		}
		system++
	}
	log.Info().Int("published", system).Int("total", len(topics.SystemDefaults)).Msg("initialized system topics")

	for _, p := range a.peers {
		location := p.Location
		if location == "" {
			location = a.location
		}
		topic := a.ns.Setup(p.Name)
		if err := pub.Publish(topic, []byte(location), topics.AnnounceQoS, true); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("announce peer location failed")
			continue
		}
		peers++
	}
	log.Info().Int("published", peers).Int("total", len(a.peers)).Msg("published peer locations")

	return system, peers
}
