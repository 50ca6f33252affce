package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"homestay-service/internal/metrics"
	"homestay-service/internal/model"
	"homestay-service/internal/notify"
	"homestay-service/internal/repository"
	"homestay-service/internal/workflow"
)

// LifecycleService drives the application state machine: every status
// mutation goes through workflow.Decide and is committed together with its
// audit record; notifications are dispatched only after the commit.
type LifecycleService struct {
	apps        *repository.ApplicationRepository
	docs        *repository.DocumentRepository
	inspections *repository.InspectionRepository
	users       *repository.UserRepository
	dispatcher  notify.Dispatcher
	settings    workflow.Settings
	log         zerolog.Logger
}

func NewLifecycleService(
	apps *repository.ApplicationRepository,
	docs *repository.DocumentRepository,
	inspections *repository.InspectionRepository,
	users *repository.UserRepository,
	dispatcher notify.Dispatcher,
	settings workflow.Settings,
	log zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		apps:        apps,
		docs:        docs,
		inspections: inspections,
		users:       users,
		dispatcher:  dispatcher,
		settings:    settings,
		log:         log,
	}
}

// Submit moves an owner's draft into the review pipeline after the
// authoritative capacity and category checks.
func (s *LifecycleService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Kind == model.KindNewRegistration {
		existing, err := s.apps.FindActiveNewRegistration(ctx, principal.UserID, app.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, &DuplicateActiveError{ConflictingID: existing.ID, ConflictingNumber: existing.ApplicationNumber}
		}
	}

	req := workflow.Request{Operation: workflow.OpSubmit, Actor: principal}
	return s.decideAndCommit(ctx, app, nil, nil, req)
}

// Resubmit returns a corrected application to the configured review stage.
func (s *LifecycleService) Resubmit(ctx context.Context, principal model.Principal, id uuid.UUID, remarks string) (*model.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	req := workflow.Request{Operation: workflow.OpResubmitCorrection, Actor: principal, Remarks: remarks}
	return s.decideAndCommit(ctx, app, nil, nil, req)
}

type ActionInput struct {
	Action           string
	Remarks          string
	OTPVerified      bool
	InspectionDate   *time.Time
	AssignTo         *uuid.UUID
	PaymentReference string
	Fields           map[string]string
}

// actionable lists the operations reachable through the generic actions
// endpoint; submit, resubmission, and inspection completion have dedicated
// entry points.
var actionable = map[workflow.Operation]bool{
	workflow.OpStartScrutiny:       true,
	workflow.OpForwardToDtdo:       true,
	workflow.OpSendBack:            true,
	workflow.OpAcceptAndSchedule:   true,
	workflow.OpReject:              true,
	workflow.OpRevert:              true,
	workflow.OpApproveInspection:   true,
	workflow.OpRejectInspection:    true,
	workflow.OpRaiseObjections:     true,
	workflow.OpApproveBypass:       true,
	workflow.OpApproveCancellation: true,
	workflow.OpConfirmPayment:      true,
	workflow.OpCorrect:             true,
}

// Act executes one role-gated transition operation.
func (s *LifecycleService) Act(ctx context.Context, principal model.Principal, id uuid.UUID, in ActionInput) (*model.Application, error) {
	op := workflow.Operation(in.Action)
	if !actionable[op] {
		return nil, ErrInvalidInput
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	req := workflow.Request{
		Operation:        op,
		Actor:            principal,
		Remarks:          in.Remarks,
		OTPVerified:      in.OTPVerified,
		InspectionDate:   in.InspectionDate,
		AssignTo:         in.AssignTo,
		PaymentReference: in.PaymentReference,
		Fields:           in.Fields,
	}

	if op == workflow.OpForwardToDtdo {
		pending, err := s.docs.CountPending(ctx, app.ID)
		if err != nil {
			return nil, err
		}
		req.PendingDocuments = pending
	}

	if op == workflow.OpAcceptAndSchedule && in.AssignTo != nil {
		if err := s.validateAssignee(ctx, *in.AssignTo, app.DistrictCode); err != nil {
			return nil, err
		}
	}

	parent, err := s.loadParent(ctx, app)
	if err != nil {
		return nil, err
	}

	return s.decideAndCommit(ctx, app, parent, nil, req)
}

type CompleteInspectionInput struct {
	ActualDate            time.Time
	Recommendation        string
	Remarks               string
	EarlyOverride         bool
	OverrideJustification string
}

// CompleteInspection files the site-visit report for an inspection order and
// moves the application into DTDO review of the outcome.
func (s *LifecycleService) CompleteInspection(ctx context.Context, principal model.Principal, orderID uuid.UUID, in CompleteInspectionInput) (*model.Application, error) {
	order, err := s.inspections.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	app, err := s.load(ctx, order.ApplicationID)
	if err != nil {
		return nil, err
	}

	actual := in.ActualDate
	req := workflow.Request{
		Operation:             workflow.OpCompleteInspection,
		Actor:                 principal,
		Remarks:               in.Remarks,
		ActualInspectionDate:  &actual,
		EarlyOverride:         in.EarlyOverride,
		OverrideJustification: in.OverrideJustification,
		Recommendation:        in.Recommendation,
	}
	return s.decideAndCommit(ctx, app, nil, order, req)
}

func (s *LifecycleService) load(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *LifecycleService) loadParent(ctx context.Context, app *model.Application) (*model.Application, error) {
	if app.ParentApplicationID == nil {
		return nil, nil
	}
	parent, err := s.apps.GetByID(ctx, *app.ParentApplicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parent, nil
}

func (s *LifecycleService) validateAssignee(ctx context.Context, assigneeID uuid.UUID, districtCode string) error {
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidInput
		}
		return err
	}
	if user.Role != model.RoleDealingAssistant || !user.IsActive || user.DistrictCode != districtCode {
		return ErrInvalidInput
	}
	return nil
}

func (s *LifecycleService) decideAndCommit(ctx context.Context, app, parent *model.Application, order *model.InspectionOrder, req workflow.Request) (*model.Application, error) {
	expected := app.UpdatedAt
	decision, err := workflow.Decide(*app, parent, order, req, s.settings, time.Now())
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(req.Operation), outcomeLabel(err)).Inc()
		return nil, err
	}

	if decision.NeedsCertificateNumber {
		number, err := s.apps.NextCertificateNumber(ctx, decision.Application.DistrictCode, time.Now().Year())
		if err != nil {
			return nil, err
		}
		decision.Application.CertificateNumber = &number
	}

	write := repository.DecisionWrite{
		Application:       &decision.Application,
		ExpectedUpdatedAt: expected,
		Audit:             &decision.Audit,
		Parent:            decision.Parent,
		CompletedOrder:    decision.CompletedOrder,
		NewOrder:          decision.NewOrder,
		Report:            decision.Report,
	}
	if err := s.apps.ApplyDecision(ctx, write); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			metrics.TransitionsTotal.WithLabelValues(string(req.Operation), "conflict").Inc()
			return nil, ErrConflict
		}
		metrics.TransitionsTotal.WithLabelValues(string(req.Operation), "error").Inc()
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(req.Operation), "applied").Inc()
	if decision.NeedsCertificateNumber {
		metrics.CertificatesIssued.WithLabelValues(string(decision.Application.Kind)).Inc()
	}

	for _, event := range decision.Events {
		s.dispatcher.Enqueue(ctx, event)
	}

	s.log.Info().
		Str("application", decision.Application.ApplicationNumber).
		Str("operation", string(req.Operation)).
		Str("status", string(decision.Application.Status)).
		Msg("transition applied")

	return &decision.Application, nil
}

func outcomeLabel(err error) string {
	var guardErr *workflow.GuardError
	var validationErr *workflow.ValidationError
	switch {
	case errors.Is(err, workflow.ErrForbidden):
		return "forbidden"
	case errors.Is(err, workflow.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, workflow.ErrOTPRequired):
		return "otp_required"
	case errors.As(err, &guardErr), errors.As(err, &validationErr):
		return "guard_failed"
	default:
		return "error"
	}
}
