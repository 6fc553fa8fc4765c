package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLatency(t *testing.T) {
	tests := []struct {
		name     string
		ms       float64
		expected string
	}{
		{"zero", 0, "0.00ms"},
		{"sub_millisecond", 0.0042, "0.00ms"},
		{"milliseconds", 12.345, "12.35ms"},
		{"just_below_second", 999.99, "999.99ms"},
		{"seconds", 1234, "1.23s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatLatency(tt.ms))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected string
	}{
		{"zero", 0, "0.0%"},
		{"half", 0.5, "50.0%"},
		{"fraction", 0.2105, "21.1%"},
		{"full", 1, "100.0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPercentage(tt.ratio))
		})
	}
}

func TestFormatChars(t *testing.T) {
	tests := []struct {
		name     string
		n        int64
		expected string
	}{
		{"zero", 0, "0"},
		{"small", 999, "999"},
		{"thousands", 1500, "1.5K"},
		{"millions", 2_500_000, "2.5M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatChars(tt.n))
		})
	}
}

func TestFormatThroughput(t *testing.T) {
	assert.Equal(t, "0/s", FormatThroughput(0))
	assert.Equal(t, "1.2K/s", FormatThroughput(1234.5))
}
