package compliance

import (
	"fmt"

	"homestay-service/internal/model"
)

// FeeSchedule carries the registration fee table and discount percentages.
// Values come from the injected settings snapshot, never from package state.
type FeeSchedule struct {
	// Base annual fee by category and location type.
	Base map[model.Category]map[model.LocationType]float64
	// Discount percentages, each applied to the base fee and summed.
	ThreeYearDiscountPct          float64
	FemaleOwnerDiscountPct        float64
	SpecialSubDivisionDiscountPct float64
}

type FeeInput struct {
	Category             model.Category
	LocationType         model.LocationType
	ValidityYears        int
	OwnerGender          string
	IsSpecialSubDivision bool
}

type FeeBreakdown struct {
	BaseFee              float64 `json:"base_fee"`
	TotalBeforeDiscounts float64 `json:"total_before_discounts"`
	ValidityDiscount     float64 `json:"validity_discount"`
	FemaleOwnerDiscount  float64 `json:"female_owner_discount"`
	SubDivisionDiscount  float64 `json:"sub_division_discount"`
	TotalDiscount        float64 `json:"total_discount"`
	FinalFee             float64 `json:"final_fee"`
	SavingsAmount        float64 `json:"savings_amount"`
	SavingsPercentage    float64 `json:"savings_percentage"`
}

// CalculateFee computes the registration fee with additive discounts. Each
// discount percentage applies to the base fee; the final fee never drops
// below zero.
func CalculateFee(in FeeInput, schedule FeeSchedule) (FeeBreakdown, error) {
	if in.ValidityYears != 1 && in.ValidityYears != 3 {
		return FeeBreakdown{}, fmt.Errorf("validity must be 1 or 3 years, got %d", in.ValidityYears)
	}

	byLocation, ok := schedule.Base[in.Category]
	if !ok {
		return FeeBreakdown{}, fmt.Errorf("no fee configured for category %q", in.Category)
	}
	base, ok := byLocation[in.LocationType]
	if !ok {
		return FeeBreakdown{}, fmt.Errorf("no fee configured for category %q in %s areas", in.Category, in.LocationType)
	}

	out := FeeBreakdown{
		BaseFee:              base,
		TotalBeforeDiscounts: base * float64(in.ValidityYears),
	}

	if in.ValidityYears == 3 {
		out.ValidityDiscount = base * schedule.ThreeYearDiscountPct / 100
	}
	if in.OwnerGender == "female" {
		out.FemaleOwnerDiscount = base * schedule.FemaleOwnerDiscountPct / 100
	}
	if in.IsSpecialSubDivision {
		out.SubDivisionDiscount = base * schedule.SpecialSubDivisionDiscountPct / 100
	}

	out.TotalDiscount = out.ValidityDiscount + out.FemaleOwnerDiscount + out.SubDivisionDiscount
	out.FinalFee = out.TotalBeforeDiscounts - out.TotalDiscount
	if out.FinalFee < 0 {
		out.FinalFee = 0
	}
	out.SavingsAmount = out.TotalBeforeDiscounts - out.FinalFee
	if out.TotalBeforeDiscounts > 0 {
		out.SavingsPercentage = out.SavingsAmount / out.TotalBeforeDiscounts * 100
	}

	return out, nil
}
