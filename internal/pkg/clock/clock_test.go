package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFixed(t *testing.T) {
	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	c := NewFixed(at)

	assert.True(t, c.Now().Equal(at))
	assert.Equal(t, time.UTC, c.Now().Location())
}

func TestManual_Advance(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	c.Advance(61 * time.Second)
	assert.Equal(t, start.Add(61*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestNewSystem(t *testing.T) {
	before := time.Now().UTC()
	now := NewSystem().Now()
	assert.False(t, now.Before(before.Add(-time.Second)))
}
