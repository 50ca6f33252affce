package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	StatusDraft                  ApplicationStatus = "draft"
	StatusSubmitted              ApplicationStatus = "submitted"
	StatusUnderScrutiny          ApplicationStatus = "under_scrutiny"
	StatusLegacyRCReview         ApplicationStatus = "legacy_rc_review"
	StatusForwardedToDtdo        ApplicationStatus = "forwarded_to_dtdo"
	StatusDtdoReview             ApplicationStatus = "dtdo_review"
	StatusInspectionScheduled    ApplicationStatus = "inspection_scheduled"
	StatusInspectionUnderReview  ApplicationStatus = "inspection_under_review"
	StatusVerifiedForPayment     ApplicationStatus = "verified_for_payment"
	StatusSentBackForCorrections ApplicationStatus = "sent_back_for_corrections"
	StatusRevertedToApplicant    ApplicationStatus = "reverted_to_applicant"
	StatusRevertedByDtdo         ApplicationStatus = "reverted_by_dtdo"
	StatusObjectionRaised        ApplicationStatus = "objection_raised"
	StatusApproved               ApplicationStatus = "approved"
	StatusRejected               ApplicationStatus = "rejected"
	StatusSuperseded             ApplicationStatus = "superseded"
	StatusRevoked                ApplicationStatus = "revoked"
	StatusCertificateCancelled   ApplicationStatus = "certificate_cancelled"
)

// IsTerminal reports whether the status is absorbing: terminal records never
// change status again, only district notes and audit entries may be appended.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusSuperseded, StatusRevoked, StatusCertificateCancelled:
		return true
	}
	return false
}

type ApplicationKind string

const (
	KindNewRegistration   ApplicationKind = "new_registration"
	KindAddRooms          ApplicationKind = "add_rooms"
	KindDeleteRooms       ApplicationKind = "delete_rooms"
	KindCancelCertificate ApplicationKind = "cancel_certificate"
	KindChangeCategory    ApplicationKind = "change_category"
	KindRenewal           ApplicationKind = "renewal"
	KindLegacyRC          ApplicationKind = "legacy_rc"
)

// IsServiceRequest reports whether the kind is a post-approval amendment
// filed against an approved parent registration.
func (k ApplicationKind) IsServiceRequest() bool {
	switch k {
	case KindAddRooms, KindDeleteRooms, KindCancelCertificate, KindChangeCategory, KindRenewal:
		return true
	}
	return false
}

type Category string

const (
	CategorySilver  Category = "silver"
	CategoryGold    Category = "gold"
	CategoryDiamond Category = "diamond"
)

// CategoryOrder lists categories from lowest to highest tier. Suggestion
// tie-breaks rely on this ordering.
var CategoryOrder = []Category{CategorySilver, CategoryGold, CategoryDiamond}

type LocationType string

const (
	LocationUrban LocationType = "urban"
	LocationRural LocationType = "rural"
)

type Application struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ApplicationNumber       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"application_number"`
	UserID                  uuid.UUID       `gorm:"type:uuid;not null" json:"user_id"`
	DistrictCode            string          `gorm:"type:varchar(8);not null" json:"district_code"`
	Kind                    ApplicationKind `gorm:"type:varchar(32);not null" json:"kind"`
	Category                Category        `gorm:"type:varchar(16);not null" json:"category"`
	ParentApplicationID     *uuid.UUID      `gorm:"type:uuid" json:"parent_application_id"`
	ParentApplicationNumber *string         `gorm:"type:varchar(64)" json:"parent_application_number"`
	ServiceContext          *string         `gorm:"type:jsonb" json:"service_context"`

	Status       ApplicationStatus `gorm:"type:varchar(32);not null;default:'draft'" json:"status"`
	CurrentStage string            `gorm:"type:varchar(32);not null;default:'application'" json:"current_stage"`

	PropertyName         string       `gorm:"type:varchar(255);not null" json:"property_name"`
	OwnerName            string       `gorm:"type:varchar(255);not null" json:"owner_name"`
	OwnerGender          string       `gorm:"type:varchar(16)" json:"owner_gender"`
	Address              string       `gorm:"type:text" json:"address"`
	Tehsil               string       `gorm:"type:varchar(128)" json:"tehsil"`
	Village              string       `gorm:"type:varchar(128)" json:"village"`
	GSTIN                string       `gorm:"type:varchar(32)" json:"gstin"`
	LocationType         LocationType `gorm:"type:varchar(16);not null;default:'rural'" json:"location_type"`
	IsSpecialSubDivision bool         `gorm:"not null;default:false" json:"is_special_sub_division"`
	ValidityYears        int          `gorm:"not null;default:1" json:"validity_years"`

	SingleBedRooms    int     `gorm:"not null;default:0" json:"single_bed_rooms"`
	DoubleBedRooms    int     `gorm:"not null;default:0" json:"double_bed_rooms"`
	FamilySuites      int     `gorm:"not null;default:0" json:"family_suites"`
	SingleBedRoomBeds int     `gorm:"not null;default:1" json:"single_bed_room_beds"`
	DoubleBedRoomBeds int     `gorm:"not null;default:2" json:"double_bed_room_beds"`
	FamilySuiteBeds   int     `gorm:"not null;default:3" json:"family_suite_beds"`
	SingleBedRoomRate float64 `gorm:"not null;default:0" json:"single_bed_room_rate"`
	DoubleBedRoomRate float64 `gorm:"not null;default:0" json:"double_bed_room_rate"`
	FamilySuiteRate   float64 `gorm:"not null;default:0" json:"family_suite_rate"`
	AttachedWashrooms int     `gorm:"not null;default:0" json:"attached_washrooms"`
	TotalRooms        int     `gorm:"not null;default:0" json:"total_rooms"`

	DaID                   *uuid.UUID `gorm:"type:uuid" json:"da_id"`
	DaReviewDate           *time.Time `json:"da_review_date"`
	DaRemarks              *string    `gorm:"type:text" json:"da_remarks"`
	DaForwardedDate        *time.Time `json:"da_forwarded_date"`
	DtdoID                 *uuid.UUID `gorm:"type:uuid" json:"dtdo_id"`
	DtdoReviewDate         *time.Time `json:"dtdo_review_date"`
	DtdoRemarks            *string    `gorm:"type:text" json:"dtdo_remarks"`
	DistrictNotes          *string    `gorm:"type:text" json:"district_notes"`
	RejectionReason        *string    `gorm:"type:text" json:"rejection_reason"`
	ClarificationRequested *string    `gorm:"type:text" json:"clarification_requested"`

	RevertCount               int     `gorm:"not null;default:0" json:"revert_count"`
	CorrectionSubmissionCount int     `gorm:"not null;default:0" json:"correction_submission_count"`
	SiteInspectionOutcome     *string `gorm:"type:varchar(32)" json:"site_inspection_outcome"`

	FeePaid          bool    `gorm:"not null;default:false" json:"fee_paid"`
	PaymentReference *string `gorm:"type:varchar(128)" json:"payment_reference"`

	CertificateNumber     *string    `gorm:"type:varchar(64)" json:"certificate_number"`
	CertificateIssuedDate *time.Time `json:"certificate_issued_date"`
	CertificateExpiryDate *time.Time `json:"certificate_expiry_date"`
	ApprovedAt            *time.Time `json:"approved_at"`

	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string {
	return "homestay_applications"
}

// RecomputeTotals refreshes the derived total_rooms field. It must be called
// after every room-count mutation; total_rooms is never settable directly.
func (a *Application) RecomputeTotals() {
	a.TotalRooms = a.SingleBedRooms + a.DoubleBedRooms + a.FamilySuites
}

// TotalBeds sums beds across all room types.
func (a *Application) TotalBeds() int {
	return a.SingleBedRooms*a.SingleBedRoomBeds +
		a.DoubleBedRooms*a.DoubleBedRoomBeds +
		a.FamilySuites*a.FamilySuiteBeds
}

// HighestNightlyRate returns the highest per-night rate across room types
// with a non-zero room count. Used for rate-band category validation.
func (a *Application) HighestNightlyRate() float64 {
	highest := 0.0
	if a.SingleBedRooms > 0 && a.SingleBedRoomRate > highest {
		highest = a.SingleBedRoomRate
	}
	if a.DoubleBedRooms > 0 && a.DoubleBedRoomRate > highest {
		highest = a.DoubleBedRoomRate
	}
	if a.FamilySuites > 0 && a.FamilySuiteRate > highest {
		highest = a.FamilySuiteRate
	}
	return highest
}
