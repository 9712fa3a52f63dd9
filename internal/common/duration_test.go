package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{"go duration", "72h", 72 * time.Hour},
		{"iso days", "P7D", 7 * 24 * time.Hour},
		{"iso hours", "PT6H", 6 * time.Hour},
		{"padded", " 30m ", 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	for _, invalid := range []string{"", "soon", "-5h", "0s"} {
		_, err := ParseWindow(invalid, now)
		assert.Error(t, err, invalid)
	}
}

func TestFormatDurationRemaining(t *testing.T) {
	assert.Equal(t, "0 seconds", FormatDurationRemaining(0))
	assert.Equal(t, "0 seconds", FormatDurationRemaining(-time.Minute))
	assert.Equal(t, "1 minute", FormatDurationRemaining(time.Minute))
	assert.Equal(t, "1 day, 2 hours, 3 minutes", FormatDurationRemaining(26*time.Hour+3*time.Minute))
	assert.Equal(t, "45 seconds", FormatDurationRemaining(45*time.Second))
}
