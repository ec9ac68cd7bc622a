package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"kingspos/internal/model"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		pct     string
		wantSub string
		wantTot string
	}{
		{"two lines with ten percent", []string{"100", "50"}, "10", "150", "135"},
		{"no items", nil, "0", "0", "0"},
		{"full discount", []string{"80"}, "100", "80", "0"},
		{"no discount", []string{"19.99", "0.01"}, "0", "20", "20"},
		{"unrounded result", []string{"10"}, "33.3", "10", "6.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]model.DocumentItem, 0, len(tt.lines))
			for _, l := range tt.lines {
				items = append(items, model.DocumentItem{LineTotal: d(l)})
			}
			got := ComputeTotals(items, d(tt.pct))
			assert.True(t, got.SubTotal.Equal(d(tt.wantSub)), "subtotal %s", got.SubTotal)
			assert.True(t, got.Total.Equal(d(tt.wantTot)), "total %s", got.Total)
		})
	}
}
