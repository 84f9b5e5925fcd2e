package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownUnknownApplicant(t *testing.T) {
	c := NewCooldownTracker(time.Hour)

	assert.False(t, c.InCooldown(1))
	assert.Equal(t, time.Duration(0), c.Remaining(1))
}

func TestCooldownWindow(t *testing.T) {
	c := NewCooldownTracker(time.Hour)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Record(1)
	assert.True(t, c.InCooldown(1))
	assert.Equal(t, time.Hour, c.Remaining(1))

	now = now.Add(45 * time.Minute)
	assert.True(t, c.InCooldown(1))
	assert.Equal(t, 15*time.Minute, c.Remaining(1))

	now = now.Add(15 * time.Minute)
	assert.False(t, c.InCooldown(1))
	assert.Equal(t, time.Duration(0), c.Remaining(1))
}

func TestCooldownRecordOverwrites(t *testing.T) {
	c := NewCooldownTracker(time.Hour)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Record(1)
	now = now.Add(2 * time.Hour)
	assert.False(t, c.InCooldown(1))

	c.Record(1)
	assert.True(t, c.InCooldown(1))
}

func TestCooldownTracksApplicantsIndependently(t *testing.T) {
	c := NewCooldownTracker(time.Hour)

	c.Record(1)
	assert.True(t, c.InCooldown(1))
	assert.False(t, c.InCooldown(2))
}
