package workflow

import (
	"homestay-service/internal/compliance"
	"homestay-service/internal/model"
)

// Settings is the workflow configuration snapshot injected into every
// decision. The engine never reads process-wide state.
type Settings struct {
	Capacity                compliance.CapacityLimits
	RateBands               map[model.Category]compliance.RateBand
	Fees                    compliance.FeeSchedule
	LockToSuggestedCategory bool
	InspectionOptionalKinds []model.ApplicationKind
	CorrectionReturnStatus  model.ApplicationStatus
}

// BypassAllowed reports whether a kind may be approved without a site
// inspection. Legacy RC onboarding is always eligible.
func (s Settings) BypassAllowed(kind model.ApplicationKind) bool {
	if kind == model.KindLegacyRC {
		return true
	}
	for _, k := range s.InspectionOptionalKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

// DefaultSettings returns the documented defaults; config overrides apply on
// top of these.
func DefaultSettings() Settings {
	return Settings{
		Capacity: compliance.CapacityLimits{
			MaxTotalRooms: 6,
			MaxTotalBeds:  12,
		},
		RateBands: map[model.Category]compliance.RateBand{
			model.CategorySilver:  {Min: 500, Max: floatPtr(3000)},
			model.CategoryGold:    {Min: 3000, Max: floatPtr(7000)},
			model.CategoryDiamond: {Min: 7000, Max: nil},
		},
		Fees: compliance.FeeSchedule{
			Base: map[model.Category]map[model.LocationType]float64{
				model.CategorySilver:  {model.LocationUrban: 6000, model.LocationRural: 3000},
				model.CategoryGold:    {model.LocationUrban: 9000, model.LocationRural: 4500},
				model.CategoryDiamond: {model.LocationUrban: 12000, model.LocationRural: 6000},
			},
			ThreeYearDiscountPct:          10,
			FemaleOwnerDiscountPct:        5,
			SpecialSubDivisionDiscountPct: 25,
		},
		LockToSuggestedCategory: false,
		InspectionOptionalKinds: nil,
		CorrectionReturnStatus:  model.StatusUnderScrutiny,
	}
}
