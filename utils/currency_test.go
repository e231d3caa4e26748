package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{"zero", decimal.Zero, "0.00"},
		{"small", decimal.NewFromFloat(12), "12.00"},
		{"thousands", decimal.NewFromFloat(15000.5), "15,000.50"},
		{"millions", decimal.NewFromInt(1234567), "1,234,567.00"},
		{"negative", decimal.NewFromFloat(-1500.25), "-1,500.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.amount))
		})
	}
}
