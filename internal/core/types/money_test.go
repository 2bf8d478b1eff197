package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12", 12},
		{" 7 ", 7},
		{"12.9", 12},
		{"", 0},
		{"abc", 0},
		{"-3", -3},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.in))
		})
	}
}

func TestParseMoney_DefaultsToZero(t *testing.T) {
	assert.True(t, ParseMoney("").IsZero())
	assert.True(t, ParseMoney("n/a").IsZero())
	assert.True(t, ParseMoney("10.25").Equal(MustMoney("10.25")))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1000", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"999.5", "999.50"},
		{"-1500", "-1,500.00"},
		{"0.125", "0.13"},
		{"2.345", "2.35"},
		{"1000.005", "1,000.01"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(MustMoney(tt.in)))
		})
	}
}

func TestLineAmountAndClamp(t *testing.T) {
	assert.True(t, LineAmount(20, MustMoney("10")).Equal(MustMoney("200")))
	assert.Equal(t, int64(0), ClampQuantity(-4))
	assert.Equal(t, int64(4), ClampQuantity(4))
	assert.True(t, ClampMoney(MustMoney("-1")).IsZero())
}
