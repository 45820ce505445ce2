package actuator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/diy-hub/internal/gpio"
)

func TestDriverWritesLevels(t *testing.T) {
	out := gpio.NewFakeWriter()
	d := NewDriver(out, gpio.DefaultPin)

	d.SetLevel(true)
	d.SetLevel(false)

	assert.Equal(t, []bool{true, false}, out.Levels())
	assert.Zero(t, d.Faults())
}

func TestDriverSwallowsFaults(t *testing.T) {
	out := gpio.NewFakeWriter()
	out.SetError(errors.New("line busy"))
	d := NewDriver(out, gpio.DefaultPin)

	assert.NotPanics(t, func() {
		d.SetLevel(true)
		d.SetLevel(false)
	})
	assert.Equal(t, int64(2), d.Faults())
	assert.Empty(t, out.Levels())

	out.SetError(nil)
	d.SetLevel(true)
	assert.Equal(t, []bool{true}, out.Levels())
	assert.Equal(t, int64(2), d.Faults())
}

func TestDriverClose(t *testing.T) {
	out := gpio.NewFakeWriter()
	d := NewDriver(out, gpio.DefaultPin)

	assert.NoError(t, d.Close())
	assert.True(t, out.Closed())
}
