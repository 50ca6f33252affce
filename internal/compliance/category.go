package compliance

import (
	"fmt"

	"homestay-service/internal/model"
)

// RateBand is a category's permitted nightly-rate range. A nil Max means
// unbounded above. Both bounds are inclusive.
type RateBand struct {
	Min float64
	Max *float64
}

type BandStatus string

const (
	BandEmpty BandStatus = "empty"
	BandOK    BandStatus = "ok"
	BandBelow BandStatus = "below"
	BandAbove BandStatus = "above"
)

// EvaluateBandStatus places a nightly rate within a band. A rate exactly on
// the upper bound is ok, one rupee above is above.
func EvaluateBandStatus(rate float64, band RateBand) BandStatus {
	if rate <= 0 {
		return BandEmpty
	}
	if rate < band.Min {
		return BandBelow
	}
	if band.Max != nil && rate > *band.Max {
		return BandAbove
	}
	return BandOK
}

type CategoryResult struct {
	IsValid           bool           `json:"is_valid"`
	Errors            []string       `json:"errors"`
	Warnings          []string       `json:"warnings"`
	SuggestedCategory model.Category `json:"suggested_category"`
}

// ValidateCategory checks the selected category against its rate band and
// suggests the lowest category whose band contains the rate. When the rate
// lands exactly on a boundary shared by two bands the lower category wins.
func ValidateCategory(category model.Category, totalRooms int, highestRate float64, bands map[model.Category]RateBand) CategoryResult {
	result := CategoryResult{IsValid: true}

	band, ok := bands[category]
	if !ok {
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unknown category %q", category))
		return result
	}

	if totalRooms == 0 {
		result.Warnings = append(result.Warnings, "no rooms configured yet")
	}

	switch EvaluateBandStatus(highestRate, band) {
	case BandEmpty:
		result.IsValid = false
		result.Errors = append(result.Errors, "a positive nightly rate is required for category validation")
	case BandBelow:
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("highest nightly rate %.0f is below the %s band minimum %.0f", highestRate, category, band.Min))
	case BandAbove:
		result.IsValid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("highest nightly rate %.0f is above the %s band maximum %.0f", highestRate, category, *band.Max))
	}

	for _, candidate := range model.CategoryOrder {
		candidateBand, ok := bands[candidate]
		if !ok {
			continue
		}
		if EvaluateBandStatus(highestRate, candidateBand) == BandOK {
			result.SuggestedCategory = candidate
			break
		}
	}

	if result.SuggestedCategory != "" && result.SuggestedCategory != category && result.IsValid {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("rate also fits category %s", result.SuggestedCategory))
	}

	return result
}
