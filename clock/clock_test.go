package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
)

func TestClock(t *testing.T) {
	c := New(config.ControlStep{Start: 10, Total: 3, Interval: 0.5})
	assert.Equal(t, int32(10), c.InternalStep)
	assert.Equal(t, 5.0, c.T)
	assert.Equal(t, int32(13), c.END_STEP)
	assert.False(t, c.Done())

	for range 3 {
		c.Tick()
	}
	assert.True(t, c.Done())
	assert.Equal(t, int32(3), c.Steps())
	assert.Equal(t, 6.5, c.T)

	c.Init()
	assert.Equal(t, int32(0), c.Steps())
}

func TestClockString(t *testing.T) {
	c := New(config.ControlStep{Start: 3725, Total: 1, Interval: 1})
	assert.Equal(t, "01:02:05", c.String())
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, m)
	assert.Equal(t, 5.0, s)
}
