package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/gpio"
	"github.com/sweeney/diy-hub/internal/topics"
)

// recordingActuator logs calls in order and mirrors the flash guard.
type recordingActuator struct {
	calls  []string
	on     bool
	silent bool
}

func (a *recordingActuator) Control(on bool) {
	a.on = on
	if on {
		a.calls = append(a.calls, "control:on")
	} else {
		a.calls = append(a.calls, "control:off")
	}
}

func (a *recordingActuator) SilentMode(on bool) {
	a.silent = on
	if on {
		a.calls = append(a.calls, "silent:on")
	} else {
		a.calls = append(a.calls, "silent:off")
	}
}

func (a *recordingActuator) FlashOnce() bool {
	a.calls = append(a.calls, "flash")
	return !a.on && !a.silent
}

func newTestRouter() (*Router, *recordingActuator, *alert.FakeNotifier) {
	act := &recordingActuator{}
	n := alert.NewFakeNotifier()
	return New(topics.New("diy"), act, n), act, n
}

func TestRouteDispatchTable(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		payload   string
		calls     []string
		action    Action
		alert     string
		alertBody string
	}{
		{"demo on", "diy/system/demo", "ON", []string{"silent:off", "flash"}, ActionUnsilence, "", ""},
		{"demo off", "diy/system/demo", "OFF", []string{"silent:on"}, ActionSilence, "", ""},
		{"silent on", "diy/system/silent", "ON", []string{"silent:on"}, ActionSilence, "", ""},
		{"silent off", "diy/system/silent", "OFF", []string{"silent:off", "flash"}, ActionUnsilence, "", ""},
		{"fire on", "diy/system/fire", "ON", []string{"control:on"}, ActionModeOn, "FIRE ALERT", "DIYHAS: Fire alert initiated by Alexa or the console."},
		{"fire off", "diy/system/fire", "OFF", []string{"control:off"}, ActionModeOff, "FIRE ALERT DOWNGRADE", "DIYHAS: Fire alert terminated by Alexa or the console."},
		{"panic on", "diy/system/panic", "ON", []string{"control:on"}, ActionModeOn, "PANIC ALERT", "DIYHAS: Panic alert initiated by Alexa or the console."},
		{"panic off", "diy/system/panic", "OFF", []string{"control:off"}, ActionModeOff, "PANIC ALERT DOWNGRADE", "DIYHAS: Panic alert terminated by Alexa or the console."},
		{"who on", "diy/system/who", "ON", []string{"control:on"}, ActionModeOn, "WHO ALERT", "DIYHAS: Who alert initiated by Alexa or the console."},
		{"who off", "diy/system/who", "OFF", []string{"control:off"}, ActionModeOff, "", ""},
		{"telemetry", "diy/choke/cpu", "42", []string{"flash"}, ActionFlash, "", ""},
		{"unhandled system topic", "diy/system/test", "ON", []string{"flash"}, ActionFlash, "", ""},
		{"foreign topic", "elsewhere/thing", "ON", []string{"flash"}, ActionFlash, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, act, n := newTestRouter()

			res := r.Route(context.Background(), tc.topic, []byte(tc.payload))

			assert.Equal(t, tc.calls, act.calls)
			assert.Equal(t, tc.action, res.Action)
			assert.Equal(t, tc.topic, res.Topic)
			assert.Equal(t, tc.alert, res.Alert)
			assert.NoError(t, res.AlertErr)

			sent := n.Sent()
			if tc.alert == "" {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			assert.Equal(t, tc.alert, sent[0].Subject)
			assert.Contains(t, sent[0].Body, tc.alertBody)
			assert.Contains(t, sent[0].Body, tc.topic)
		})
	}
}

func TestPayloadMatchIsByteExact(t *testing.T) {
	for _, payload := range []string{"", "on", "On", " ON", "ON\n", "ONN", "OFF", "1"} {
		t.Run(payload, func(t *testing.T) {
			r, act, n := newTestRouter()

			res := r.Route(context.Background(), "diy/system/fire", []byte(payload))

			assert.Equal(t, ActionModeOff, res.Action)
			assert.Equal(t, []string{"control:off"}, act.calls)
			require.Len(t, n.Sent(), 1)
			assert.Equal(t, "FIRE ALERT DOWNGRADE", n.Sent()[0].Subject)
		})
	}
}

func TestAlertFailureDoesNotStopDispatch(t *testing.T) {
	r, act, n := newTestRouter()
	n.SetError(errors.New("relay unreachable"))

	var res Result
	assert.NotPanics(t, func() {
		res = r.Route(context.Background(), "diy/system/panic", []byte("ON"))
	})

	assert.Equal(t, "PANIC ALERT", res.Alert)
	assert.Error(t, res.AlertErr)
	assert.Equal(t, ActionModeOn, res.Action)
	assert.Equal(t, []string{"control:on"}, act.calls)
	assert.Len(t, n.Sent(), 1, "exactly one attempt, no retry")
}

func TestRouteWithDisabledNotifier(t *testing.T) {
	act := &recordingActuator{}
	r := New(topics.New("diy"), act, alert.Disabled{})

	res := r.Route(context.Background(), "diy/system/fire", []byte("ON"))

	assert.ErrorIs(t, res.AlertErr, alert.ErrDisabled)
	assert.Equal(t, []string{"control:on"}, act.calls)
}

func TestRouteDrivesPulser(t *testing.T) {
	out := gpio.NewFakeWriter()
	p := actuator.NewPulser(actuator.NewDriver(out, gpio.DefaultPin), actuator.Options{Sleep: func(_ time.Duration) {}})
	r := New(topics.New("diy"), p, alert.NewFakeNotifier())
	ctx := context.Background()

	res := r.Route(ctx, "diy/choke/os", []byte("raspbian"))
	assert.True(t, res.Flashed)
	assert.Equal(t, []bool{true, false}, out.Levels())

	r.Route(ctx, "diy/system/fire", []byte("ON"))
	assert.Equal(t, actuator.ConditionActive, p.State().Condition())

	out.Reset()
	res = r.Route(ctx, "diy/cloud/cpu", []byte("12"))
	assert.False(t, res.Flashed, "flash is a no-op while the waveform runs")
	assert.Empty(t, out.Levels())

	r.Route(ctx, "diy/system/silent", []byte("ON"))
	assert.Equal(t, actuator.ConditionSilenced, p.State().Condition())

	r.Route(ctx, "diy/system/fire", []byte("OFF"))
	r.Route(ctx, "diy/system/demo", []byte("ON"))
	assert.Equal(t, actuator.ConditionIdle, p.State().Condition())
}

func TestAlertSubject(t *testing.T) {
	assert.Equal(t, "FIRE ALERT", AlertSubject("fire", true))
	assert.Equal(t, "FIRE ALERT DOWNGRADE", AlertSubject("fire", false))
	assert.Equal(t, "WHO ALERT", AlertSubject("who", true))
}
