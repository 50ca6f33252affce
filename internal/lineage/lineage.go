package lineage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homestay-service/internal/model"
	"homestay-service/internal/repository"
)

// ErrNoApprovedParent means the owner has no approved registration a
// service request could attach to.
var ErrNoApprovedParent = errors.New("no approved registration found for this owner")

// OpenRequestError blocks a second concurrent service request; it carries
// the open request's id so the caller can redirect to it.
type OpenRequestError struct {
	ConflictingID     uuid.UUID
	ConflictingNumber string
}

func (e *OpenRequestError) Error() string {
	return fmt.Sprintf("an open service request already exists: %s", e.ConflictingNumber)
}

// Manager resolves parent/child application relationships for service
// requests.
type Manager struct {
	apps *repository.ApplicationRepository
}

func NewManager(apps *repository.ApplicationRepository) *Manager {
	return &Manager{apps: apps}
}

type ServiceDraftInput struct {
	Kind           model.ApplicationKind
	Category       *model.Category
	ServiceContext *string
	ValidityYears  int
}

// NewServiceDraft builds an unsaved service-request draft: it resolves the
// owner's approved parent, refuses when another service request is open, and
// seeds the draft from the parent so the owner edits deltas.
func (m *Manager) NewServiceDraft(ctx context.Context, ownerID uuid.UUID, in ServiceDraftInput) (*model.Application, error) {
	if !in.Kind.IsServiceRequest() {
		return nil, fmt.Errorf("%s is not a service request kind", in.Kind)
	}

	parent, err := m.apps.FindApprovedParent(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoApprovedParent
		}
		return nil, err
	}

	open, err := m.apps.FindOpenServiceRequest(ctx, ownerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, &OpenRequestError{ConflictingID: open.ID, ConflictingNumber: open.ApplicationNumber}
	}

	draft := SeedFromParent(*parent, in)
	return &draft, nil
}

// SeedFromParent copies the parent's identity, address, and current room and
// rate configuration into a fresh draft of the requested kind.
func SeedFromParent(parent model.Application, in ServiceDraftInput) model.Application {
	draft := model.Application{
		UserID:                  parent.UserID,
		DistrictCode:            parent.DistrictCode,
		Kind:                    in.Kind,
		Category:                parent.Category,
		ParentApplicationID:     &parent.ID,
		ParentApplicationNumber: &parent.ApplicationNumber,
		ServiceContext:          in.ServiceContext,
		Status:                  model.StatusDraft,
		CurrentStage:            "application",

		PropertyName:         parent.PropertyName,
		OwnerName:            parent.OwnerName,
		OwnerGender:          parent.OwnerGender,
		Address:              parent.Address,
		Tehsil:               parent.Tehsil,
		Village:              parent.Village,
		GSTIN:                parent.GSTIN,
		LocationType:         parent.LocationType,
		IsSpecialSubDivision: parent.IsSpecialSubDivision,
		ValidityYears:        parent.ValidityYears,

		SingleBedRooms:    parent.SingleBedRooms,
		DoubleBedRooms:    parent.DoubleBedRooms,
		FamilySuites:      parent.FamilySuites,
		SingleBedRoomBeds: parent.SingleBedRoomBeds,
		DoubleBedRoomBeds: parent.DoubleBedRoomBeds,
		FamilySuiteBeds:   parent.FamilySuiteBeds,
		SingleBedRoomRate: parent.SingleBedRoomRate,
		DoubleBedRoomRate: parent.DoubleBedRoomRate,
		FamilySuiteRate:   parent.FamilySuiteRate,
		AttachedWashrooms: parent.AttachedWashrooms,

		// A paid parent registration covers its amendments; only renewals
		// and category upgrades go through the payment gate again.
		FeePaid: in.Kind == model.KindAddRooms || in.Kind == model.KindDeleteRooms || in.Kind == model.KindCancelCertificate,
	}

	if in.Category != nil {
		draft.Category = *in.Category
	}
	if in.ValidityYears == 1 || in.ValidityYears == 3 {
		draft.ValidityYears = in.ValidityYears
	}

	draft.RecomputeTotals()
	return draft
}
