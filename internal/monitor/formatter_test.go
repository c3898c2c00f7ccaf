package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "9999", FormatCount(9999))
	assert.Equal(t, "12,345", FormatCount(12345))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestFormatLatencyMS(t *testing.T) {
	assert.Equal(t, "142.5ms", FormatLatencyMS(142.5))
	assert.Equal(t, "999.9ms", FormatLatencyMS(999.9))
	assert.Equal(t, "1.5s", FormatLatencyMS(1500))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "94.2%", FormatPercent(94.2))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "100.0%", FormatPercent(100))
}

func TestFormatSince(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "never", FormatSince(time.Time{}, now))
	assert.Equal(t, "just now", FormatSince(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", FormatSince(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatSince(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatSince(now.Add(-49*time.Hour), now))
}
