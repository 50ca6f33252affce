package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentVerification string

const (
	DocumentPending  DocumentVerification = "pending"
	DocumentVerified DocumentVerification = "verified"
	DocumentRejected DocumentVerification = "rejected"
)

// ApplicationDocument holds upload metadata only; file storage and the
// byte-size policy live in the upload service.
type ApplicationDocument struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ApplicationID uuid.UUID            `gorm:"type:uuid;not null" json:"application_id"`
	DocType       string               `gorm:"type:varchar(64);not null" json:"doc_type"`
	FileURL       string               `gorm:"type:text;not null" json:"file_url"`
	Verification  DocumentVerification `gorm:"type:varchar(16);not null;default:'pending'" json:"verification"`
	VerifiedBy    *uuid.UUID           `gorm:"type:uuid" json:"verified_by"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ApplicationDocument) TableName() string {
	return "application_documents"
}

func (d *ApplicationDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
