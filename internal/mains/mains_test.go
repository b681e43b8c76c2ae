package mains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectForTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		want     int
	}{
		// 50Hz countries
		{"Europe/London", 50},
		{"Europe/Berlin", 50},
		{"Australia/Sydney", 50},
		{"Asia/Tokyo", 50}, // Japan defaults to 50Hz

		// 60Hz countries
		{"America/New_York", 60},
		{"America/Toronto", 60},
		{"America/Bogota", 60},    // Colombia
		{"America/Sao_Paulo", 60}, // Brazil
		{"Asia/Seoul", 60},        // South Korea
		{"Asia/Manila", 60},       // Philippines

		// Edge cases
		{"UTC", 50},
		{"GMT", 50},
		{"Etc/UTC", 50},
		{"", 50},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			got := DetectForTimezone(tt.timezone).Hz
			if got != tt.want {
				t.Errorf("DetectForTimezone(%q).Hz = %d, want %d", tt.timezone, got, tt.want)
			}
		})
	}
}

func TestDetectForTimezoneRecordsCountry(t *testing.T) {
	d := DetectForTimezone("America/Chicago")
	assert.Equal(t, 60, d.Hz)
	assert.Equal(t, "America/Chicago", d.Timezone)
	assert.Equal(t, "United States", d.Country)

	d = DetectForTimezone("Etc/UTC")
	assert.Equal(t, DefaultHz, d.Hz)
	assert.Empty(t, d.Country)
}

func TestResolve(t *testing.T) {
	hz, d := Resolve(60)
	assert.Equal(t, 60.0, hz)
	assert.Equal(t, Detection{}, d)

	hz, d = Resolve(0)
	assert.Contains(t, []float64{50, 60}, hz)
	assert.Equal(t, float64(d.Hz), hz)
}

func TestDetect(t *testing.T) {
	freq := Detect().Hz
	if freq != 50 && freq != 60 {
		t.Errorf("Detect().Hz = %d, want 50 or 60", freq)
	}
}
