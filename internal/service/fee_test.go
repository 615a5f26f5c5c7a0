package service

import (
	"testing"

	"github.com/campusmart/campusmart-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCalculateFee(t *testing.T) {
	def := model.DefaultFeeSchedule()

	tests := []struct {
		name     string
		amount   int64
		campus   string
		schedule *model.FeeSchedule
		want     int64
	}{
		{name: "five percent of 4000", amount: 4000, schedule: def, want: 200},
		{name: "five percent of 3000", amount: 3000, schedule: def, want: 150},
		{name: "minimum fee floor", amount: 500, schedule: def, want: 50},
		{name: "exactly at minimum boundary", amount: 1000, schedule: def, want: 50},
		{name: "maximum fee cap", amount: 100000, schedule: def, want: 1000},
		{name: "zero amount", amount: 0, schedule: def, want: 0},
		{name: "negative amount", amount: -100, schedule: def, want: 0},
		{name: "nil schedule falls back to default", amount: 4000, schedule: nil, want: 200},
		{
			name:   "rounds half up",
			amount: 1010, // 5% = 50.5
			schedule: &model.FeeSchedule{
				BasePercentage: 5,
				MinimumFee:     0,
				MaximumFee:     1000,
			},
			want: 51,
		},
		{
			name:   "campus discount applies after clamp",
			amount: 4000,
			campus: "north",
			schedule: &model.FeeSchedule{
				BasePercentage:  5,
				MinimumFee:      50,
				MaximumFee:      1000,
				CampusDiscounts: map[string]float64{"north": 0.5},
			},
			want: 100,
		},
		{
			name:   "discount for another campus does not apply",
			amount: 4000,
			campus: "south",
			schedule: &model.FeeSchedule{
				BasePercentage:  5,
				MinimumFee:      50,
				MaximumFee:      1000,
				CampusDiscounts: map[string]float64{"north": 0.5},
			},
			want: 200,
		},
		{
			name:   "free threshold waives the fee",
			amount: 5000,
			schedule: &model.FeeSchedule{
				BasePercentage: 5,
				MinimumFee:     50,
				MaximumFee:     1000,
				FreeThreshold:  5000,
			},
			want: 0,
		},
		{
			name:   "below free threshold still pays",
			amount: 4999,
			schedule: &model.FeeSchedule{
				BasePercentage: 5,
				MinimumFee:     50,
				MaximumFee:     1000,
				FreeThreshold:  5000,
			},
			want: 250,
		},
		{
			name:   "zero threshold disables the waiver",
			amount: 1000000,
			schedule: &model.FeeSchedule{
				BasePercentage: 5,
				MinimumFee:     50,
				MaximumFee:     1000,
				FreeThreshold:  0,
			},
			want: 1000,
		},
		{
			name:   "zero maximum disables the cap",
			amount: 100000,
			schedule: &model.FeeSchedule{
				BasePercentage: 5,
				MinimumFee:     50,
				MaximumFee:     0,
			},
			want: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFee(tt.amount, tt.campus, tt.schedule)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateFeeDeterministic(t *testing.T) {
	sched := &model.FeeSchedule{
		BasePercentage:  7.5,
		MinimumFee:      30,
		MaximumFee:      900,
		CampusDiscounts: map[string]float64{"east": 0.25},
	}
	first := CalculateFee(2340, "east", sched)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, CalculateFee(2340, "east", sched))
	}
}
