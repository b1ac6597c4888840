package utils

import (
	"testing"
	"time"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "$0"},
		{100, "$100"},
		{2847.5, "$2847.5"},
		{0.00004217, "$0.00004217"},
		{0.000012345678, "$0.000012345678"},
		{-1.5, "-$1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatUSD(tt.input); got != tt.expected {
				t.Errorf("FormatUSD(%v) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatUSDInt(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "$0"},
		{100, "$100"},
		{1234567, "$1,234,567"},
		{1234567.6, "$1,234,568"},
		{999999999, "$999,999,999"},
		{-1234567, "-$1,234,567"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatUSDInt(tt.input); got != tt.expected {
				t.Errorf("FormatUSDInt(%v) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{-3.456, "-3.46%"},
		{2.4, "2.40%"},
		{0, "0.00%"},
		{0.311, "0.31%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatPct(tt.input); got != tt.expected {
				t.Errorf("FormatPct(%v) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGroupInt(t *testing.T) {
	if got := GroupInt(28413); got != "28,413" {
		t.Errorf("GroupInt(28413) = %s, want 28,413", got)
	}
	if got := GroupInt(412); got != "412" {
		t.Errorf("GroupInt(412) = %s, want 412", got)
	}
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deployed time.Time
		expected int
	}{
		{"same instant", now, 0},
		{"under a day", now.Add(-23 * time.Hour), 0},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"partial days floor", now.Add(-49 * time.Hour), 2},
		{"fixed date", time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC), 411},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeDays(now, tt.deployed); got != tt.expected {
				t.Errorf("AgeDays = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	if got := FormatAge(127); got != "127d" {
		t.Errorf("FormatAge(127) = %s, want 127d", got)
	}
}
