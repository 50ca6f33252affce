package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InspectionOrderStatus string

const (
	InspectionOrderScheduled InspectionOrderStatus = "scheduled"
	InspectionOrderCompleted InspectionOrderStatus = "completed"
	InspectionOrderCancelled InspectionOrderStatus = "cancelled"
)

// Recommendation values recognized on an inspection report. Anything else
// falls back to outcome "completed".
const (
	RecommendationApprove         = "approve"
	RecommendationRaiseObjections = "raise_objections"
	RecommendationReject          = "reject"
)

const (
	InspectionOutcomeRecommended = "recommended"
	InspectionOutcomeObjection   = "objection"
	InspectionOutcomeCompleted   = "completed"
)

type InspectionOrder struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ApplicationID uuid.UUID             `gorm:"type:uuid;not null" json:"application_id"`
	AssignedTo    uuid.UUID             `gorm:"type:uuid;not null" json:"assigned_to"`
	Status        InspectionOrderStatus `gorm:"type:varchar(16);not null;default:'scheduled'" json:"status"`
	ScheduledDate time.Time             `gorm:"not null" json:"scheduled_date"`
	OrderedBy     uuid.UUID             `gorm:"type:uuid;not null" json:"ordered_by"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InspectionOrder) TableName() string {
	return "inspection_orders"
}

func (o *InspectionOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type InspectionReport struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	OrderID               uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	ApplicationID         uuid.UUID `gorm:"type:uuid;not null" json:"application_id"`
	InspectedBy           uuid.UUID `gorm:"type:uuid;not null" json:"inspected_by"`
	InspectionDate        time.Time `gorm:"not null" json:"inspection_date"`
	Recommendation        string    `gorm:"type:varchar(32);not null" json:"recommendation"`
	Remarks               string    `gorm:"type:text" json:"remarks"`
	EarlyOverride         bool      `gorm:"not null;default:false" json:"early_override"`
	OverrideJustification *string   `gorm:"type:text" json:"override_justification"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (InspectionReport) TableName() string {
	return "inspection_reports"
}

func (r *InspectionReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
