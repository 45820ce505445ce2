// Package router maps incoming (topic, payload) pairs to actuator actions
// and alerts, and announces the canonical system state on connect.
package router

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/topics"
)

// Actuator is the part of the pulse state machine the router drives.
type Actuator interface {
	Control(on bool)
	SilentMode(on bool)
	FlashOnce() bool
}

// Action names what a message did to the actuator.
type Action string

const (
	ActionSilence   Action = "silence"
	ActionUnsilence Action = "unsilence"
	ActionModeOn    Action = "mode_on"
	ActionModeOff   Action = "mode_off"
	ActionFlash     Action = "flash"
)

// Result describes how one message was handled.
type Result struct {
	Topic   string
	Action  Action
	Flashed bool

	// Alert is the subject of the alert attempted, empty if none.
	Alert    string
	AlertErr error
}

// DefaultAlertTimeout bounds a single alert delivery.
const DefaultAlertTimeout = 30 * time.Second

type handler func(ctx context.Context, name, topic string, payload []byte) Result

// Router dispatches messages. It holds references to, but does not own,
// the actuator and the notifier.
type Router struct {
	ns           topics.Namespace
	act          Actuator
	notifier     alert.Notifier
	alertTimeout time.Duration
	system       map[string]handler
}

// New creates a Router for the namespace.
func New(ns topics.Namespace, act Actuator, notifier alert.Notifier) *Router {
	r := &Router{
		ns:           ns,
		act:          act,
		notifier:     notifier,
		alertTimeout: DefaultAlertTimeout,
	}
	r.system = map[string]handler{
		topics.Demo:   r.demo,
		topics.Silent: r.silent,
		topics.Fire:   r.critical,
		topics.Panic:  r.critical,
		topics.Who:    r.who,
	}
	return r
}

// SetAlertTimeout overrides DefaultAlertTimeout.
func (r *Router) SetAlertTimeout(d time.Duration) {
	if d > 0 {
		r.alertTimeout = d
	}
}

// Route handles one message. System topics are matched exactly first;
// everything else, including unknown or malformed topics, flashes once.
func (r *Router) Route(ctx context.Context, topic string, payload []byte) Result {
	if name, ok := r.ns.SystemName(topic); ok {
		if h, ok := r.system[name]; ok {
			return h(ctx, name, topic, payload)
		}
	}
	return Result{Topic: topic, Action: ActionFlash, Flashed: r.act.FlashOnce()}
}

// isOn compares byte-exact with "ON".
func isOn(payload []byte) bool {
	return bytes.Equal(payload, []byte(topics.PayloadOn))
}

func (r *Router) demo(_ context.Context, _, topic string, payload []byte) Result {
	if isOn(payload) {
		r.act.SilentMode(false)
		return Result{Topic: topic, Action: ActionUnsilence, Flashed: r.act.FlashOnce()}
	}
	r.act.SilentMode(true)
	return Result{Topic: topic, Action: ActionSilence}
}

func (r *Router) silent(_ context.Context, _, topic string, payload []byte) Result {
	if isOn(payload) {
		r.act.SilentMode(true)
		return Result{Topic: topic, Action: ActionSilence}
	}
	r.act.SilentMode(false)
	return Result{Topic: topic, Action: ActionUnsilence, Flashed: r.act.FlashOnce()}
}

// critical handles fire and panic: alert on every change, then set the mode.
func (r *Router) critical(ctx context.Context, name, topic string, payload []byte) Result {
	on := isOn(payload)
	res := r.alert(ctx, name, topic, payload, on)
	r.setMode(&res, on)
	return res
}

// who alerts only when raised; lowering just turns the mode off.
func (r *Router) who(ctx context.Context, name, topic string, payload []byte) Result {
	on := isOn(payload)
	res := Result{Topic: topic}
	if on {
		res = r.alert(ctx, name, topic, payload, true)
	}
	r.setMode(&res, on)
	return res
}

func (r *Router) setMode(res *Result, on bool) {
	r.act.Control(on)
	if on {
		res.Action = ActionModeOn
	} else {
		res.Action = ActionModeOff
	}
}

// alert makes one delivery attempt. Failures are logged and kept in the
// result; they never propagate.
func (r *Router) alert(ctx context.Context, name, topic string, payload []byte, on bool) Result {
	subject := AlertSubject(name, on)
	res := Result{Topic: topic, Alert: subject}

	ctx, cancel := context.WithTimeout(ctx, r.alertTimeout)
	defer cancel()

	if err := r.notifier.Notify(ctx, subject, AlertBody(name, topic, payload, on)); err != nil {
		res.AlertErr = err
		log.Error().Err(err).Str("subject", subject).Str("topic", topic).Msg("alert delivery failed")
	}
	return res
}

// AlertSubject derives the subject from the system topic name,
// e.g. "FIRE ALERT" or "PANIC ALERT DOWNGRADE".
func AlertSubject(name string, on bool) string {
	subject := strings.ToUpper(name) + " ALERT"
	if !on {
		subject += " DOWNGRADE"
	}
	return subject
}

// AlertBody composes the message body from the topic and payload.
func AlertBody(name, topic string, payload []byte, on bool) string {
	verb := "terminated"
	if on {
		verb = "initiated"
	}
	title := name
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return fmt.Sprintf("DIYHAS: %s alert %s by Alexa or the console.\n\ntopic: %s\npayload: %s\n",
		title, verb, topic, payload)
}
