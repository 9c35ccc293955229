package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.024", "$1.02"},
		{"1.026", "$1.03"},
		{"1000.026", "$1,000.03"},
		{"0", "$0.00"},
		{"185", "$185.00"},
		{"-42.5", "-$42.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, USD(dec(tt.in)), "input %q", tt.in)
	}
}

func TestSeparated(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.024", 2, "1.02"},
		{"1.026", 2, "1.03"},
		{"1000.026", 2, "1,000.03"},
		{"1234567", 0, "1,234,567"},
		{"0.00224", 8, "0.00224"},
		{"-0.5", 2, "-0.5"},
		{"-12345.678", 1, "-12,345.7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Separated(dec(tt.in), tt.places), "input %q", tt.in)
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "12,345", Count(12345))
}
