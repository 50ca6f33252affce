package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"homestay-service/internal/compliance"
	"homestay-service/internal/lineage"
	"homestay-service/internal/model"
	"homestay-service/internal/repository"
	"homestay-service/internal/workflow"
)

// ApplicationService covers the owner-facing surface: drafts, edits with
// interactive clamping, documents, queries, and fee/category previews.
type ApplicationService struct {
	apps        *repository.ApplicationRepository
	docs        *repository.DocumentRepository
	inspections *repository.InspectionRepository
	lineage     *lineage.Manager
	settings    workflow.Settings
	log         zerolog.Logger
}

func NewApplicationService(
	apps *repository.ApplicationRepository,
	docs *repository.DocumentRepository,
	inspections *repository.InspectionRepository,
	lineageManager *lineage.Manager,
	settings workflow.Settings,
	log zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:        apps,
		docs:        docs,
		inspections: inspections,
		lineage:     lineageManager,
		settings:    settings,
		log:         log,
	}
}

type CreateDraftInput struct {
	Kind           model.ApplicationKind
	Category       model.Category
	ServiceContext *string

	PropertyName         string
	OwnerName            string
	OwnerGender          string
	Address              string
	Tehsil               string
	Village              string
	GSTIN                string
	DistrictCode         string
	LocationType         model.LocationType
	IsSpecialSubDivision bool
	ValidityYears        int
}

func (s *ApplicationService) CreateDraft(ctx context.Context, principal model.Principal, in CreateDraftInput) (*model.Application, error) {
	if !principal.IsOwner() {
		return nil, ErrPermissionDenied
	}
	if in.Kind == "" {
		in.Kind = model.KindNewRegistration
	}

	var app *model.Application
	if in.Kind.IsServiceRequest() {
		var category *model.Category
		if in.Category != "" {
			category = &in.Category
		}
		draft, err := s.lineage.NewServiceDraft(ctx, principal.UserID, lineage.ServiceDraftInput{
			Kind:           in.Kind,
			Category:       category,
			ServiceContext: in.ServiceContext,
			ValidityYears:  in.ValidityYears,
		})
		if err != nil {
			return nil, err
		}
		app = draft
	} else {
		if strings.TrimSpace(in.PropertyName) == "" || strings.TrimSpace(in.OwnerName) == "" {
			return nil, ErrInvalidInput
		}
		if strings.TrimSpace(in.DistrictCode) == "" {
			return nil, ErrInvalidInput
		}
		category := in.Category
		if category == "" {
			category = model.CategorySilver
		}
		locationType := in.LocationType
		if locationType == "" {
			locationType = model.LocationRural
		}
		validity := in.ValidityYears
		if validity != 1 && validity != 3 {
			validity = 1
		}
		app = &model.Application{
			UserID:               principal.UserID,
			DistrictCode:         strings.ToUpper(strings.TrimSpace(in.DistrictCode)),
			Kind:                 in.Kind,
			Category:             category,
			Status:               model.StatusDraft,
			CurrentStage:         workflow.StageApplication,
			PropertyName:         strings.TrimSpace(in.PropertyName),
			OwnerName:            strings.TrimSpace(in.OwnerName),
			OwnerGender:          strings.ToLower(strings.TrimSpace(in.OwnerGender)),
			Address:              in.Address,
			Tehsil:               in.Tehsil,
			Village:              in.Village,
			GSTIN:                in.GSTIN,
			LocationType:         locationType,
			IsSpecialSubDivision: in.IsSpecialSubDivision,
			ValidityYears:        validity,
			SingleBedRoomBeds:    1,
			DoubleBedRoomBeds:    2,
			FamilySuiteBeds:      3,
		}
	}

	number, err := s.apps.NextApplicationNumber(ctx, app.DistrictCode, time.Now().Year())
	if err != nil {
		return nil, err
	}
	app.ApplicationNumber = number

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

type RoomRowInput struct {
	Quantity    *int     `json:"quantity"`
	BedsPerRoom *int     `json:"beds_per_room"`
	Rate        *float64 `json:"rate"`
}

type UpdateDraftInput struct {
	PropertyName      *string
	OwnerName         *string
	OwnerGender       *string
	Address           *string
	Tehsil            *string
	Village           *string
	GSTIN             *string
	Category          *model.Category
	ValidityYears     *int
	AttachedWashrooms *int
	SingleBedRooms    *RoomRowInput
	DoubleBedRooms    *RoomRowInput
	FamilySuites      *RoomRowInput
	ServiceContext    *string
}

var editableStatuses = map[model.ApplicationStatus]bool{
	model.StatusDraft:                  true,
	model.StatusSentBackForCorrections: true,
	model.StatusRevertedToApplicant:    true,
	model.StatusRevertedByDtdo:         true,
	model.StatusObjectionRaised:        true,
}

// UpdateDraft applies field edits. Room rows are clamped downward against
// remaining room/bed headroom rather than rejected; the hard capacity check
// runs at submission.
func (s *ApplicationService) UpdateDraft(ctx context.Context, principal model.Principal, id uuid.UUID, in UpdateDraftInput) (*model.Application, error) {
	app, err := s.ownedApplication(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !editableStatuses[app.Status] {
		return nil, ErrInvalidStatus
	}

	if in.PropertyName != nil {
		app.PropertyName = strings.TrimSpace(*in.PropertyName)
	}
	if in.OwnerName != nil {
		app.OwnerName = strings.TrimSpace(*in.OwnerName)
	}
	if in.OwnerGender != nil {
		app.OwnerGender = strings.ToLower(strings.TrimSpace(*in.OwnerGender))
	}
	if in.Address != nil {
		app.Address = *in.Address
	}
	if in.Tehsil != nil {
		app.Tehsil = *in.Tehsil
	}
	if in.Village != nil {
		app.Village = *in.Village
	}
	if in.GSTIN != nil {
		app.GSTIN = *in.GSTIN
	}
	if in.Category != nil {
		app.Category = *in.Category
	}
	if in.ValidityYears != nil {
		if *in.ValidityYears != 1 && *in.ValidityYears != 3 {
			return nil, ErrInvalidInput
		}
		app.ValidityYears = *in.ValidityYears
	}
	if in.AttachedWashrooms != nil {
		app.AttachedWashrooms = *in.AttachedWashrooms
	}
	if in.ServiceContext != nil {
		app.ServiceContext = in.ServiceContext
	}

	s.applyRoomEdits(app, in)
	app.RecomputeTotals()

	if err := s.apps.Save(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// applyRoomEdits clamps each edited row against the other two so the draft
// never exceeds the room or bed ceilings mid-edit.
func (s *ApplicationService) applyRoomEdits(app *model.Application, in UpdateDraftInput) {
	limits := s.settings.Capacity

	edit := func(quantity, bedsPerRoom *int, rate *float64, input *RoomRowInput, otherRooms, otherBeds int) {
		if input == nil {
			return
		}
		row := compliance.RoomRow{Quantity: *quantity, BedsPerRoom: *bedsPerRoom, Rate: *rate}
		if input.Quantity != nil {
			row.Quantity = *input.Quantity
		}
		if input.BedsPerRoom != nil {
			row.BedsPerRoom = *input.BedsPerRoom
		}
		if input.Rate != nil {
			row.Rate = *input.Rate
		}
		row = compliance.ClampRoomRow(row, otherRooms, otherBeds, limits)
		*quantity = row.Quantity
		*bedsPerRoom = row.BedsPerRoom
		*rate = row.Rate
	}

	edit(&app.SingleBedRooms, &app.SingleBedRoomBeds, &app.SingleBedRoomRate, in.SingleBedRooms,
		app.DoubleBedRooms+app.FamilySuites,
		app.DoubleBedRooms*app.DoubleBedRoomBeds+app.FamilySuites*app.FamilySuiteBeds)
	edit(&app.DoubleBedRooms, &app.DoubleBedRoomBeds, &app.DoubleBedRoomRate, in.DoubleBedRooms,
		app.SingleBedRooms+app.FamilySuites,
		app.SingleBedRooms*app.SingleBedRoomBeds+app.FamilySuites*app.FamilySuiteBeds)
	edit(&app.FamilySuites, &app.FamilySuiteBeds, &app.FamilySuiteRate, in.FamilySuites,
		app.SingleBedRooms+app.DoubleBedRooms,
		app.SingleBedRooms*app.SingleBedRoomBeds+app.DoubleBedRooms*app.DoubleBedRoomBeds)
}

type ListOptions struct {
	Statuses []model.ApplicationStatus
	Kinds    []model.ApplicationKind
	Limit    int
	Offset   int
}

func (s *ApplicationService) List(ctx context.Context, principal model.Principal, opts ListOptions) ([]model.ApplicationBrief, error) {
	filter := repository.ApplicationFilter{
		Statuses: opts.Statuses,
		Kinds:    opts.Kinds,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	switch {
	case principal.IsOwner():
		ownerID := principal.UserID
		filter.OwnerID = &ownerID
	case principal.IsAdmin():
		// department admins see every district
	case principal.IsStaff():
		filter.DistrictCode = principal.DistrictCode
	default:
		return nil, ErrPermissionDenied
	}

	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	briefs := make([]model.ApplicationBrief, 0, len(apps))
	for _, app := range apps {
		briefs = append(briefs, model.BriefOf(app))
	}
	return briefs, nil
}

func (s *ApplicationService) GetDetails(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ApplicationDetails, error) {
	app, err := s.visibleApplication(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	details := &model.ApplicationDetails{Application: *app}

	docs, err := s.docs.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	details.Documents = docs

	order, err := s.inspections.LatestOrderByApplication(ctx, app.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if order != nil {
		details.Order = order
		report, err := s.inspections.GetReportByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		details.Report = report
	}

	if app.ParentApplicationID != nil {
		parent, err := s.apps.GetByID(ctx, *app.ParentApplicationID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if parent != nil {
			brief := model.BriefOf(*parent)
			details.Parent = &brief
		}
	}

	return details, nil
}

// Timeline returns the full audit trail, visible to the owner and to any
// staff role.
func (s *ApplicationService) Timeline(ctx context.Context, principal model.Principal, id uuid.UUID) ([]model.ApplicationAction, error) {
	if _, err := s.visibleApplication(ctx, principal, id); err != nil {
		return nil, err
	}
	return s.apps.ListActions(ctx, id)
}

func (s *ApplicationService) AddDocument(ctx context.Context, principal model.Principal, applicationID uuid.UUID, docType, fileURL string) (*model.ApplicationDocument, error) {
	app, err := s.ownedApplication(ctx, principal, applicationID)
	if err != nil {
		return nil, err
	}
	if !editableStatuses[app.Status] {
		return nil, ErrInvalidStatus
	}
	if strings.TrimSpace(docType) == "" || strings.TrimSpace(fileURL) == "" {
		return nil, ErrInvalidInput
	}

	doc := &model.ApplicationDocument{
		ApplicationID: app.ID,
		DocType:       strings.TrimSpace(docType),
		FileURL:       strings.TrimSpace(fileURL),
		Verification:  model.DocumentPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ApplicationService) VerifyDocument(ctx context.Context, principal model.Principal, documentID uuid.UUID, verification model.DocumentVerification) error {
	if !principal.IsDA() && !principal.IsDtdo() {
		return ErrPermissionDenied
	}
	if verification != model.DocumentVerified && verification != model.DocumentRejected {
		return ErrInvalidInput
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	app, err := s.apps.GetByID(ctx, doc.ApplicationID)
	if err != nil {
		return err
	}
	if app.DistrictCode != principal.DistrictCode {
		return ErrPermissionDenied
	}

	return s.docs.SetVerification(ctx, documentID, verification, principal.UserID)
}

// QuoteFee exposes the pure fee calculator with the configured schedule.
func (s *ApplicationService) QuoteFee(in compliance.FeeInput) (compliance.FeeBreakdown, error) {
	return compliance.CalculateFee(in, s.settings.Fees)
}

// CheckCategory exposes rate-band validation and suggestion.
func (s *ApplicationService) CheckCategory(category model.Category, totalRooms int, highestRate float64) compliance.CategoryResult {
	return compliance.ValidateCategory(category, totalRooms, highestRate, s.settings.RateBands)
}

func (s *ApplicationService) ownedApplication(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.IsOwner() || app.UserID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return app, nil
}

func (s *ApplicationService) visibleApplication(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch {
	case principal.IsOwner() && app.UserID == principal.UserID:
		return app, nil
	case principal.IsAdmin():
		return app, nil
	case principal.IsStaff() && app.DistrictCode == principal.DistrictCode:
		return app, nil
	default:
		return nil, ErrPermissionDenied
	}
}
