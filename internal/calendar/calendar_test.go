package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKeepsWrittenDate(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	ts := time.Date(2024, 6, 15, 23, 30, 0, 0, lima)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Day(ts))
}

func TestToday(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	now := time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Today(now, lima))
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), Today(now, nil))
}

func TestComparisons(t *testing.T) {
	morning := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	next := time.Date(2024, 6, 16, 1, 0, 0, 0, time.UTC)

	assert.True(t, Equal(morning, evening))
	assert.False(t, Before(morning, evening))
	assert.True(t, Before(evening, next))
	assert.True(t, After(next, morning))
	assert.True(t, Within(evening, morning, next))
	assert.False(t, Within(next, morning, evening))
}
