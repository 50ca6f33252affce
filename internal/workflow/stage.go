package workflow

import "homestay-service/internal/model"

// Stage labels shadow the status for coarse progress display.
const (
	StageApplication = "application"
	StageScrutiny    = "scrutiny"
	StageDistrict    = "district_review"
	StageInspection  = "inspection"
	StagePayment     = "payment"
	StageCorrections = "corrections"
	StageCertified   = "certified"
	StageClosed      = "closed"
)

func StageFor(status model.ApplicationStatus) string {
	switch status {
	case model.StatusDraft:
		return StageApplication
	case model.StatusSubmitted, model.StatusUnderScrutiny, model.StatusLegacyRCReview:
		return StageScrutiny
	case model.StatusForwardedToDtdo, model.StatusDtdoReview:
		return StageDistrict
	case model.StatusInspectionScheduled, model.StatusInspectionUnderReview:
		return StageInspection
	case model.StatusVerifiedForPayment:
		return StagePayment
	case model.StatusSentBackForCorrections, model.StatusRevertedToApplicant,
		model.StatusRevertedByDtdo, model.StatusObjectionRaised:
		return StageCorrections
	case model.StatusApproved:
		return StageCertified
	default:
		return StageClosed
	}
}
