package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationBrief struct {
	ID                uuid.UUID         `json:"id"`
	ApplicationNumber string            `json:"application_number"`
	Kind              ApplicationKind   `json:"kind"`
	Category          Category          `json:"category"`
	Status            ApplicationStatus `json:"status"`
	CurrentStage      string            `json:"current_stage"`
	PropertyName      string            `json:"property_name"`
	DistrictCode      string            `json:"district_code"`
	TotalRooms        int               `json:"total_rooms"`
	SubmittedAt       *time.Time        `json:"submitted_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func BriefOf(a Application) ApplicationBrief {
	return ApplicationBrief{
		ID:                a.ID,
		ApplicationNumber: a.ApplicationNumber,
		Kind:              a.Kind,
		Category:          a.Category,
		Status:            a.Status,
		CurrentStage:      a.CurrentStage,
		PropertyName:      a.PropertyName,
		DistrictCode:      a.DistrictCode,
		TotalRooms:        a.TotalRooms,
		SubmittedAt:       a.SubmittedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

type ApplicationDetails struct {
	Application Application           `json:"application"`
	Documents   []ApplicationDocument `json:"documents"`
	Order       *InspectionOrder      `json:"inspection_order,omitempty"`
	Report      *InspectionReport     `json:"inspection_report,omitempty"`
	Parent      *ApplicationBrief     `json:"parent,omitempty"`
}
