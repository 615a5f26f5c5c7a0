package service

import (
	"math"

	"github.com/campusmart/campusmart-backend/internal/model"
)

// CalculateFee computes the platform fee for a given amount under the
// schedule in effect. Pure and deterministic; callers must pass the
// schedule loaded at checkout time so the persisted fee matches what
// was actually charged.
//
// The fee is the base percentage of the amount clamped to
// [MinimumFee, MaximumFee], reduced by the campus discount, and waived
// entirely at or above FreeThreshold (a threshold of zero disables the
// waiver).
func CalculateFee(amount int64, campus string, s *model.FeeSchedule) int64 {
	if amount <= 0 {
		return 0
	}
	if s == nil {
		s = model.DefaultFeeSchedule()
	}
	fee := int64(math.Round(float64(amount) * s.BasePercentage / 100))
	if fee < s.MinimumFee {
		fee = s.MinimumFee
	}
	if s.MaximumFee > 0 && fee > s.MaximumFee {
		fee = s.MaximumFee
	}
	if d, ok := s.CampusDiscounts[campus]; ok && d > 0 {
		fee = int64(math.Round(float64(fee) * (1 - d)))
	}
	if s.FreeThreshold > 0 && amount >= s.FreeThreshold {
		fee = 0
	}
	if fee < 0 {
		fee = 0
	}
	return fee
}
