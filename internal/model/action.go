package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationAction is one append-only audit trail entry. Rows are never
// updated or deleted; the trail is the sole source of truth for how an
// application reached its current status.
type ApplicationAction struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ApplicationID  uuid.UUID          `gorm:"type:uuid;not null" json:"application_id"`
	ActorID        *uuid.UUID         `gorm:"type:uuid" json:"actor_id"`
	Action         string             `gorm:"type:varchar(64);not null" json:"action"`
	PreviousStatus *ApplicationStatus `gorm:"type:varchar(32)" json:"previous_status"`
	NewStatus      ApplicationStatus  `gorm:"type:varchar(32);not null" json:"new_status"`
	Feedback       *string            `gorm:"type:text" json:"feedback"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (ApplicationAction) TableName() string {
	return "application_actions"
}

func (a *ApplicationAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
