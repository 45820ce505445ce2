package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	err := Disabled{}.Notify(context.Background(), "FIRE ALERT", "body")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestFakeNotifier(t *testing.T) {
	f := NewFakeNotifier()

	require.NoError(t, f.Notify(context.Background(), "FIRE ALERT", "started"))
	f.SetError(errors.New("relay down"))
	assert.Error(t, f.Notify(context.Background(), "FIRE ALERT DOWNGRADE", "ended"))

	assert.Equal(t, []Sent{
		{Subject: "FIRE ALERT", Body: "started"},
		{Subject: "FIRE ALERT DOWNGRADE", Body: "ended"},
	}, f.Sent())

	f.Reset()
	assert.Empty(t, f.Sent())
}

func TestMailConfigValidate(t *testing.T) {
	good := MailConfig{Host: "smtp.example.com", From: "hub@example.com", To: []string{"a@example.com"}}
	assert.NoError(t, good.Validate())

	noHost := good
	noHost.Host = ""
	assert.ErrorIs(t, noHost.Validate(), ErrMailConfig)

	noFrom := good
	noFrom.From = ""
	assert.ErrorIs(t, noFrom.Validate(), ErrMailConfig)

	noTo := good
	noTo.To = nil
	assert.ErrorIs(t, noTo.Validate(), ErrMailConfig)
}

func TestNewMailerDefaults(t *testing.T) {
	m, err := NewMailer(MailConfig{Host: "smtp.example.com", From: "hub@example.com", To: []string{"a@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultMailPort, m.cfg.Port)
	assert.Equal(t, DefaultMailTimeout, m.cfg.Timeout)

	_, err = NewMailer(MailConfig{})
	assert.ErrorIs(t, err, ErrMailConfig)
}

func TestMailerBuildsOneMessagePerRecipient(t *testing.T) {
	m, err := NewMailer(MailConfig{
		Host: "smtp.example.com",
		From: "hub@example.com",
		To:   []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)

	msgs, err := m.messages("PANIC ALERT", "DIYHAS: Panic alert initiated by Alexa or the console.")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	for i, want := range []string{"a@example.com", "b@example.com"} {
		to := msgs[i].GetToString()
		require.Len(t, to, 1)
		assert.Contains(t, to[0], want)
	}
}

func TestMailerRejectsBadAddress(t *testing.T) {
	m, err := NewMailer(MailConfig{Host: "smtp.example.com", From: "not an address", To: []string{"a@example.com"}})
	require.NoError(t, err)

	_, err = m.messages("FIRE ALERT", "body")
	assert.Error(t, err)
}
