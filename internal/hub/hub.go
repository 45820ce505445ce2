// Package hub wires the bus, the pulse state machine, the router and the
// day/night scheduler together and runs their loops.
package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/metrics"
	"github.com/sweeney/diy-hub/internal/mqtt"
	"github.com/sweeney/diy-hub/internal/router"
	"github.com/sweeney/diy-hub/internal/schedule"
	"github.com/sweeney/diy-hub/internal/status"
	"github.com/sweeney/diy-hub/internal/topics"
)

// Options configures a Hub.
type Options struct {
	Namespace    topics.Namespace
	Peers        []topics.Peer
	Location     string
	DayHour      int
	NightHour    int
	Policy       schedule.Policy
	AlertTimeout time.Duration

	// Tracker and Metrics are optional.
	Tracker *status.Tracker
	Metrics *metrics.Metrics
}

// Hub owns the core components. Create with New, then call Run.
type Hub struct {
	bus       mqtt.Bus
	pulser    *actuator.Pulser
	router    *router.Router
	announcer *router.Announcer
	scheduler *schedule.Scheduler
	tracker   *status.Tracker
	metrics   *metrics.Metrics
}

// New builds the router, announcer and scheduler over bus and pulser, and
// registers the connect hook on bus.
func New(bus mqtt.Bus, pulser *actuator.Pulser, notifier alert.Notifier, opts Options) (*Hub, error) {
	policy, err := schedule.ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	var action schedule.Action = schedule.Republish{Pub: bus, NS: opts.Namespace}
	if policy == schedule.PolicyDirect {
		action = schedule.Direct{Target: pulser}
	}
	sched, err := schedule.New(opts.DayHour, opts.NightHour, action)
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}

	r := router.New(opts.Namespace, pulser, notifier)
	r.SetAlertTimeout(opts.AlertTimeout)

	h := &Hub{
		bus:       bus,
		pulser:    pulser,
		router:    r,
		announcer: router.NewAnnouncer(opts.Namespace, opts.Peers, opts.Location),
		scheduler: sched,
		tracker:   opts.Tracker,
		metrics:   opts.Metrics,
	}
	bus.OnConnect(h.handleConnect)
	return h, nil
}

// handleConnect announces the canonical state and forgets the applied
// day/night state, since the announcement has just reset every device to Day.
func (h *Hub) handleConnect(pub mqtt.Publisher) {
	system, peers := h.announcer.Announce(pub)
	h.scheduler.Assume(schedule.Day)

	log.Info().Int("system", system).Int("peers", peers).Msg("announced state on connect")

	if h.tracker != nil {
		h.tracker.RecordAnnouncement()
		h.tracker.SetMQTTConnected(true)
		h.tracker.SetDayNight(schedule.Day)
	}
	if h.metrics != nil {
		h.metrics.ObserveAnnouncement()
	}
}

// Run starts the pulse loop and the message loop, then evaluates the
// scheduler on every tick until ctx is done. It returns once every loop
// has stopped and the output has been driven low.
func (h *Hub) Run(ctx context.Context, now func() time.Time, tick <-chan time.Time) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.pulser.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		h.messageLoop(ctx, now)
	}()

	h.checkSchedule(now())
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Info().Msg("hub stopped")
			return nil
		case <-tick:
			h.checkSchedule(now())
			h.refresh()
		}
	}
}

// messageLoop routes messages one at a time in delivery order.
func (h *Hub) messageLoop(ctx context.Context, now func() time.Time) {
	msgs := h.bus.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			h.handle(ctx, msg, now())
		}
	}
}

// handle routes one message and records the result.
func (h *Hub) handle(ctx context.Context, msg mqtt.Message, at time.Time) router.Result {
	res := h.router.Route(ctx, msg.Topic, msg.Payload)

	log.Info().
		Str("topic", msg.Topic).
		Bytes("payload", msg.Payload).
		Str("action", string(res.Action)).
		Bool("flashed", res.Flashed).
		Msg("message routed")

	if h.tracker != nil {
		h.tracker.RecordMessage(res, msg.Payload, at)
	}
	if h.metrics != nil {
		h.metrics.ObserveResult(res)
	}
	return res
}

func (h *Hub) checkSchedule(t time.Time) {
	state, changed := h.scheduler.Check(t)
	if !changed {
		return
	}
	if h.tracker != nil {
		h.tracker.RecordTransition(state)
	}
	if h.metrics != nil {
		h.metrics.ObserveTransition(state)
	}
}

func (h *Hub) refresh() {
	if h.tracker == nil {
		return
	}
	h.tracker.SetActuator(h.pulser.State())
	h.tracker.SetMQTTConnected(h.bus.IsConnected())
}

// State returns the pulser state.
func (h *Hub) State() actuator.State {
	return h.pulser.State()
}

// DayNight returns the scheduler's remembered state.
func (h *Hub) DayNight() schedule.State {
	return h.scheduler.Current()
}
