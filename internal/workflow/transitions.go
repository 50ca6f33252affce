package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"homestay-service/internal/compliance"
	"homestay-service/internal/model"
)

type transition struct {
	roles         []model.UserRole
	from          []model.ApplicationStatus
	districtBound bool
	apply         func(e *env) error
}

var transitions = map[Operation]transition{
	OpSubmit: {
		roles: []model.UserRole{model.RoleOwner},
		from:  []model.ApplicationStatus{model.StatusDraft},
		apply: applySubmit,
	},
	OpStartScrutiny: {
		roles:         []model.UserRole{model.RoleDealingAssistant},
		from:          []model.ApplicationStatus{model.StatusSubmitted},
		districtBound: true,
		apply:         applyStartScrutiny,
	},
	OpForwardToDtdo: {
		roles:         []model.UserRole{model.RoleDealingAssistant},
		from:          []model.ApplicationStatus{model.StatusUnderScrutiny, model.StatusLegacyRCReview},
		districtBound: true,
		apply:         applyForwardToDtdo,
	},
	OpSendBack: {
		roles:         []model.UserRole{model.RoleDealingAssistant},
		from:          []model.ApplicationStatus{model.StatusUnderScrutiny, model.StatusLegacyRCReview},
		districtBound: true,
		apply: func(e *env) error {
			return applyRevert(e, model.StatusRevertedToApplicant, "da_revert", true)
		},
	},
	OpAcceptAndSchedule: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusForwardedToDtdo, model.StatusDtdoReview},
		districtBound: true,
		apply:         applyAcceptAndSchedule,
	},
	OpReject: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusForwardedToDtdo, model.StatusDtdoReview},
		districtBound: true,
		apply: func(e *env) error {
			return applyReject(e, "application_rejected")
		},
	},
	OpRevert: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusForwardedToDtdo, model.StatusDtdoReview},
		districtBound: true,
		apply: func(e *env) error {
			e.stampDtdo()
			return applyRevert(e, model.StatusRevertedByDtdo, "dtdo_revert", false)
		},
	},
	OpCompleteInspection: {
		roles: []model.UserRole{model.RoleDealingAssistant},
		from:  []model.ApplicationStatus{model.StatusInspectionScheduled},
		apply: applyCompleteInspection,
	},
	OpApproveInspection: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusInspectionUnderReview},
		districtBound: true,
		apply: func(e *env) error {
			e.stampDtdo()
			return applyApproval(e, false)
		},
	},
	OpRejectInspection: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusInspectionUnderReview},
		districtBound: true,
		apply: func(e *env) error {
			return applyReject(e, "inspection_rejected")
		},
	},
	OpRaiseObjections: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusInspectionUnderReview},
		districtBound: true,
		apply:         applyRaiseObjections,
	},
	OpApproveBypass: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusForwardedToDtdo, model.StatusDtdoReview, model.StatusLegacyRCReview},
		districtBound: true,
		apply:         applyApproveBypass,
	},
	OpResubmitCorrection: {
		roles: []model.UserRole{model.RoleOwner},
		from: []model.ApplicationStatus{
			model.StatusSentBackForCorrections,
			model.StatusRevertedToApplicant,
			model.StatusRevertedByDtdo,
			model.StatusObjectionRaised,
		},
		apply: applyResubmitCorrection,
	},
	OpApproveCancellation: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusForwardedToDtdo, model.StatusDtdoReview, model.StatusInspectionUnderReview},
		districtBound: true,
		apply:         applyApproveCancellation,
	},
	OpConfirmPayment: {
		roles: []model.UserRole{model.RoleOwner, model.RoleDepartmentAdmin},
		from:  []model.ApplicationStatus{model.StatusVerifiedForPayment},
		apply: applyConfirmPayment,
	},
	OpCorrect: {
		roles:         []model.UserRole{model.RoleDtdo},
		from:          []model.ApplicationStatus{model.StatusApproved},
		districtBound: true,
		apply:         applyCorrect,
	},
}

type env struct {
	d        *Decision
	req      Request
	order    *model.InspectionOrder
	settings Settings
	now      time.Time

	auditSet bool
}

func (e *env) audit(action string, feedback *string) {
	e.d.Audit.Action = action
	e.d.Audit.Feedback = feedback
	e.auditSet = true
}

func (e *env) notify(name string, recipient model.Application, data map[string]string) {
	e.d.Events = append(e.d.Events, Event{
		Name:          name,
		ApplicationID: recipient.ID,
		Recipient:     recipient.UserID,
		Data:          data,
	})
}

func (e *env) notifyOwner(name string, data map[string]string) {
	e.notify(name, e.d.Application, data)
}

func (e *env) stampDtdo() {
	app := &e.d.Application
	actorID := e.req.Actor.UserID
	now := e.now
	app.DtdoID = &actorID
	app.DtdoReviewDate = &now
	if remarks := strings.TrimSpace(e.req.Remarks); remarks != "" {
		app.DtdoRemarks = &remarks
	}
}

func (e *env) requireRemarks() error {
	if strings.TrimSpace(e.req.Remarks) == "" {
		return &GuardError{Msg: "remarks are required"}
	}
	return nil
}

// Decide validates one transition attempt against the table and returns the
// full decision, or an error with no partial effects. The caller persists
// the decision atomically and dispatches events after commit.
func Decide(app model.Application, parent *model.Application, order *model.InspectionOrder, req Request, settings Settings, now time.Time) (*Decision, error) {
	t, ok := transitions[req.Operation]
	if !ok {
		return nil, ErrUnknownOperation
	}

	if !roleAllowed(t.roles, req.Actor.Role) {
		return nil, ErrForbidden
	}
	if req.Actor.IsOwner() && req.Actor.UserID != app.UserID {
		return nil, ErrForbidden
	}
	if t.districtBound && !req.Actor.IsAdmin() && req.Actor.DistrictCode != app.DistrictCode {
		return nil, ErrForbidden
	}

	// Terminal statuses are immutable except for post-approval corrections,
	// whose own from-list restricts them to approved records.
	if app.Status.IsTerminal() && req.Operation != OpCorrect {
		return nil, ErrInvalidState
	}
	if !statusAllowed(t.from, app.Status) {
		return nil, ErrInvalidState
	}

	prev := app.Status
	d := &Decision{Application: app}
	if parent != nil {
		parentCopy := *parent
		d.Parent = &parentCopy
	}

	e := &env{d: d, req: req, order: order, settings: settings, now: now}
	if err := t.apply(e); err != nil {
		return nil, err
	}
	if !e.auditSet {
		return nil, fmt.Errorf("transition %s produced no audit entry", req.Operation)
	}

	d.Application.CurrentStage = StageFor(d.Application.Status)
	if d.Parent != nil {
		d.Parent.CurrentStage = StageFor(d.Parent.Status)
	}

	actorID := req.Actor.UserID
	d.Audit.ApplicationID = d.Application.ID
	d.Audit.ActorID = &actorID
	d.Audit.PreviousStatus = &prev
	d.Audit.NewStatus = d.Application.Status

	return d, nil
}

func roleAllowed(roles []model.UserRole, role model.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func statusAllowed(from []model.ApplicationStatus, status model.ApplicationStatus) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}

func roomRows(app *model.Application) []compliance.RoomRow {
	return []compliance.RoomRow{
		{Name: "single-bed rooms", Quantity: app.SingleBedRooms, BedsPerRoom: app.SingleBedRoomBeds, Rate: app.SingleBedRoomRate},
		{Name: "double-bed rooms", Quantity: app.DoubleBedRooms, BedsPerRoom: app.DoubleBedRoomBeds, Rate: app.DoubleBedRoomRate},
		{Name: "family suites", Quantity: app.FamilySuites, BedsPerRoom: app.FamilySuiteBeds, Rate: app.FamilySuiteRate},
	}
}

func applySubmit(e *env) error {
	app := &e.d.Application
	app.RecomputeTotals()

	if errs := compliance.CheckCapacity(roomRows(app), app.AttachedWashrooms, e.settings.Capacity); len(errs) > 0 {
		return &ValidationError{Messages: errs}
	}

	result := compliance.ValidateCategory(app.Category, app.TotalRooms, app.HighestNightlyRate(), e.settings.RateBands)
	var feedback *string
	if !result.IsValid {
		if e.settings.LockToSuggestedCategory && result.SuggestedCategory != "" {
			note := fmt.Sprintf("category adjusted from %s to %s per rate band policy", app.Category, result.SuggestedCategory)
			app.Category = result.SuggestedCategory
			feedback = &note
		} else {
			return &ValidationError{Messages: result.Errors}
		}
	}

	now := e.now
	app.SubmittedAt = &now
	if app.Kind == model.KindLegacyRC {
		// Legacy certificates skip clerical intake and land straight in the
		// simplified review queue.
		app.Status = model.StatusLegacyRCReview
	} else {
		app.Status = model.StatusSubmitted
	}

	e.audit("owner_submitted", feedback)
	e.notifyOwner(EventApplicationSubmitted, nil)
	return nil
}

func applyStartScrutiny(e *env) error {
	app := &e.d.Application
	actorID := e.req.Actor.UserID
	now := e.now
	app.DaID = &actorID
	app.DaReviewDate = &now
	app.Status = model.StatusUnderScrutiny
	e.audit("start_scrutiny", nil)
	return nil
}

func applyForwardToDtdo(e *env) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	app := &e.d.Application
	if app.Kind != model.KindCancelCertificate && e.req.PendingDocuments > 0 {
		return &GuardError{Msg: fmt.Sprintf("%d document(s) still pending verification", e.req.PendingDocuments)}
	}

	actorID := e.req.Actor.UserID
	now := e.now
	remarks := strings.TrimSpace(e.req.Remarks)
	app.DaID = &actorID
	app.DaReviewDate = &now
	app.DaForwardedDate = &now
	app.DaRemarks = &remarks
	app.Status = model.StatusForwardedToDtdo

	e.audit("forwarded_to_dtdo", &remarks)
	e.notifyOwner(EventApplicationForwarded, nil)
	return nil
}

// applyRevert implements the shared escalation rule. The first send-back at
// either stage routes the application back to the owner; the second one,
// anywhere, is conclusive: the requested target is ignored and the
// application is auto-rejected.
func applyRevert(e *env, target model.ApplicationStatus, action string, requireOTP bool) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	app := &e.d.Application
	remarks := strings.TrimSpace(e.req.Remarks)

	if app.RevertCount >= 1 {
		reason := "application rejected after repeated correction requests: " + remarks
		app.RevertCount++
		app.Status = model.StatusRejected
		app.RejectionReason = &reason
		e.audit("auto_rejected", &remarks)
		e.notifyOwner(EventApplicationRejected, map[string]string{"reason": reason})
		return nil
	}

	if requireOTP && !e.req.OTPVerified {
		return ErrOTPRequired
	}

	app.RevertCount++
	app.Status = target
	app.ClarificationRequested = &remarks
	e.audit(action, &remarks)
	e.notifyOwner(EventApplicationReverted, map[string]string{"reason": remarks})
	return nil
}

func applyAcceptAndSchedule(e *env) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	e.stampDtdo()
	app := &e.d.Application

	// Room deletions and certificate cancellations carry no site to inspect;
	// DTDO acceptance is the terminal approval.
	switch app.Kind {
	case model.KindCancelCertificate:
		return applyCancellation(e, "cancellation_approved")
	case model.KindDeleteRooms:
		issueCertificate(e)
		remarks := strings.TrimSpace(e.req.Remarks)
		e.audit("application_approved", &remarks)
		e.notifyOwner(EventApplicationApproved, nil)
		return nil
	}

	if e.req.InspectionDate != nil && e.req.AssignTo != nil {
		app.Status = model.StatusInspectionScheduled
		e.d.NewOrder = &model.InspectionOrder{
			ApplicationID: app.ID,
			AssignedTo:    *e.req.AssignTo,
			Status:        model.InspectionOrderScheduled,
			ScheduledDate: *e.req.InspectionDate,
			OrderedBy:     e.req.Actor.UserID,
		}
		e.audit("inspection_scheduled", nil)
		e.notifyOwner(EventInspectionScheduled, map[string]string{
			"scheduled_date": e.req.InspectionDate.Format("2006-01-02"),
		})
		e.d.Events = append(e.d.Events, Event{
			Name:          EventInspectionScheduled,
			ApplicationID: app.ID,
			Recipient:     *e.req.AssignTo,
		})
		return nil
	}

	app.Status = model.StatusDtdoReview
	e.audit("dtdo_review_started", nil)
	return nil
}

func applyReject(e *env, action string) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	e.stampDtdo()
	app := &e.d.Application
	remarks := strings.TrimSpace(e.req.Remarks)
	app.Status = model.StatusRejected
	app.RejectionReason = &remarks
	e.audit(action, &remarks)
	e.notifyOwner(EventApplicationRejected, map[string]string{"reason": remarks})
	return nil
}

func applyRaiseObjections(e *env) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	e.stampDtdo()
	app := &e.d.Application
	remarks := strings.TrimSpace(e.req.Remarks)
	app.Status = model.StatusObjectionRaised
	app.ClarificationRequested = &remarks
	e.audit("objections_raised", &remarks)
	e.notifyOwner(EventObjectionRaised, map[string]string{"reason": remarks})
	return nil
}

func applyCompleteInspection(e *env) error {
	order := e.order
	if order == nil {
		return &GuardError{Msg: "no inspection order for this application"}
	}
	if e.req.Actor.UserID != order.AssignedTo {
		return ErrForbidden
	}
	if order.Status == model.InspectionOrderCompleted {
		return &GuardError{Msg: "inspection order already completed"}
	}

	if e.req.ActualInspectionDate == nil {
		return &GuardError{Msg: "actual inspection date is required"}
	}
	actual := dateOnly(*e.req.ActualInspectionDate)
	today := dateOnly(e.now)
	scheduled := dateOnly(order.ScheduledDate)

	if actual.After(today) {
		return &GuardError{Msg: "inspection date cannot be in the future"}
	}
	if actual.Before(scheduled) {
		if !e.req.EarlyOverride {
			return &GuardError{Msg: "completing before the scheduled date requires an early-completion override"}
		}
		if len(strings.TrimSpace(e.req.OverrideJustification)) < 15 {
			return &GuardError{Msg: "early-completion justification must be at least 15 characters"}
		}
		if scheduled.Sub(actual) > 7*24*time.Hour {
			return &GuardError{Msg: "inspection cannot be completed more than 7 days early"}
		}
	}

	app := &e.d.Application
	outcome := outcomeFor(e.req.Recommendation)
	app.SiteInspectionOutcome = &outcome
	app.Status = model.StatusInspectionUnderReview

	completed := *order
	completed.Status = model.InspectionOrderCompleted
	e.d.CompletedOrder = &completed

	report := &model.InspectionReport{
		OrderID:        order.ID,
		ApplicationID:  app.ID,
		InspectedBy:    e.req.Actor.UserID,
		InspectionDate: actual,
		Recommendation: strings.TrimSpace(e.req.Recommendation),
		Remarks:        strings.TrimSpace(e.req.Remarks),
		EarlyOverride:  e.req.EarlyOverride,
	}
	if report.EarlyOverride {
		justification := strings.TrimSpace(e.req.OverrideJustification)
		report.OverrideJustification = &justification
	}
	e.d.Report = report

	feedback := report.Recommendation
	e.audit("inspection_completed", &feedback)
	e.d.Events = append(e.d.Events, Event{
		Name:          EventInspectionCompleted,
		ApplicationID: app.ID,
		Recipient:     order.OrderedBy,
		Data:          map[string]string{"outcome": outcome},
	})
	return nil
}

// outcomeFor maps the free-text recommendation onto the stored outcome.
// Unrecognized values fall back to "completed".
func outcomeFor(recommendation string) string {
	switch strings.ToLower(strings.TrimSpace(recommendation)) {
	case model.RecommendationRaiseObjections:
		return model.InspectionOutcomeObjection
	case model.RecommendationApprove:
		return model.InspectionOutcomeRecommended
	default:
		return model.InspectionOutcomeCompleted
	}
}

// applyApproval holds the shared approval tail: cancellation kinds cascade,
// paid-up or legacy applications get their certificate immediately, everyone
// else moves to the payment gate.
func applyApproval(e *env, bypass bool) error {
	app := &e.d.Application
	suffix := ""
	if bypass {
		suffix = "_bypass"
	}
	remarks := strings.TrimSpace(e.req.Remarks)
	var feedback *string
	if remarks != "" {
		feedback = &remarks
	}

	if app.Kind == model.KindCancelCertificate {
		return applyCancellation(e, "cancellation_approved"+suffix)
	}

	if app.FeePaid || app.Kind == model.KindLegacyRC {
		issueCertificate(e)
		e.audit("application_approved"+suffix, feedback)
		e.notifyOwner(EventApplicationApproved, nil)
		return nil
	}

	app.Status = model.StatusVerifiedForPayment
	e.audit("verified_for_payment"+suffix, feedback)
	e.notifyOwner(EventVerifiedForPayment, nil)
	return nil
}

func applyApproveBypass(e *env) error {
	if err := e.requireRemarks(); err != nil {
		return err
	}
	app := &e.d.Application
	if !e.settings.BypassAllowed(app.Kind) {
		return &GuardError{Msg: fmt.Sprintf("inspection bypass is not enabled for %s applications", app.Kind)}
	}
	e.stampDtdo()
	return applyApproval(e, true)
}

func applyResubmitCorrection(e *env) error {
	app := &e.d.Application
	app.RecomputeTotals()

	if errs := compliance.CheckCapacity(roomRows(app), app.AttachedWashrooms, e.settings.Capacity); len(errs) > 0 {
		return &ValidationError{Messages: errs}
	}

	app.Status = e.settings.CorrectionReturnStatus
	app.CorrectionSubmissionCount++
	app.DaRemarks = nil
	app.DtdoRemarks = nil
	app.ClarificationRequested = nil

	remarks := strings.TrimSpace(e.req.Remarks)
	var feedback *string
	if remarks != "" {
		feedback = &remarks
	}
	e.audit("correction_resubmitted", feedback)
	if app.DaID != nil {
		e.d.Events = append(e.d.Events, Event{
			Name:          EventCorrectionResubmit,
			ApplicationID: app.ID,
			Recipient:     *app.DaID,
		})
	}
	return nil
}

func applyApproveCancellation(e *env) error {
	app := &e.d.Application
	if app.Kind != model.KindCancelCertificate {
		return &GuardError{Msg: "only cancel_certificate applications can be cancelled"}
	}
	e.stampDtdo()
	return applyCancellation(e, "cancellation_approved")
}

// applyCancellation is the full revocation cascade: the child request ends
// in certificate_cancelled and the parent certificate expires immediately.
func applyCancellation(e *env, action string) error {
	app := &e.d.Application
	now := e.now
	app.Status = model.StatusCertificateCancelled

	if e.d.Parent != nil {
		e.d.Parent.Status = model.StatusCertificateCancelled
		e.d.Parent.CertificateExpiryDate = &now
	}

	remarks := strings.TrimSpace(e.req.Remarks)
	var feedback *string
	if remarks != "" {
		feedback = &remarks
	}
	e.audit(action, feedback)
	e.notifyOwner(EventCertificateCancelled, nil)
	return nil
}

func applyConfirmPayment(e *env) error {
	ref := strings.TrimSpace(e.req.PaymentReference)
	if ref == "" {
		return &GuardError{Msg: "payment reference is required"}
	}
	app := &e.d.Application
	app.FeePaid = true
	app.PaymentReference = &ref
	issueCertificate(e)
	e.audit("payment_confirmed", &ref)
	e.notifyOwner(EventApplicationApproved, nil)
	return nil
}

// issueCertificate stamps approval and certificate dates and, for service
// requests, supersedes the parent so the child becomes the canonical record.
func issueCertificate(e *env) {
	app := &e.d.Application
	now := e.now
	app.Status = model.StatusApproved
	app.ApprovedAt = &now
	app.CertificateIssuedDate = &now
	years := app.ValidityYears
	if years <= 0 {
		years = 1
	}
	expiry := now.AddDate(years, 0, 0)
	app.CertificateExpiryDate = &expiry
	if app.CertificateNumber == nil {
		e.d.NeedsCertificateNumber = true
	}

	if e.d.Parent != nil && app.Kind.IsServiceRequest() && app.Kind != model.KindCancelCertificate {
		e.d.Parent.Status = model.StatusSuperseded
	}
}

// correctableFields is the post-approval correction allow-list.
var correctableFields = map[string]bool{
	"owner_name":    true,
	"property_name": true,
	"address":       true,
	"tehsil":        true,
	"village":       true,
	"owner_gender":  true,
	"gstin":         true,
}

func applyCorrect(e *env) error {
	reason := strings.TrimSpace(e.req.Remarks)
	if len(reason) < 10 {
		return &GuardError{Msg: "a correction reason of at least 10 characters is required"}
	}
	if len(e.req.Fields) == 0 {
		return &GuardError{Msg: "no correction fields supplied"}
	}

	app := &e.d.Application
	changes := make(map[string]map[string]string, len(e.req.Fields))
	for field, value := range e.req.Fields {
		if !correctableFields[field] {
			return &GuardError{Msg: fmt.Sprintf("field %q cannot be corrected post-approval", field)}
		}
		var target *string
		switch field {
		case "owner_name":
			target = &app.OwnerName
		case "property_name":
			target = &app.PropertyName
		case "address":
			target = &app.Address
		case "tehsil":
			target = &app.Tehsil
		case "village":
			target = &app.Village
		case "owner_gender":
			target = &app.OwnerGender
		case "gstin":
			target = &app.GSTIN
		}
		changes[field] = map[string]string{"from": *target, "to": value}
		*target = value
	}

	payload, err := json.Marshal(struct {
		Reason  string                       `json:"reason"`
		Changes map[string]map[string]string `json:"changes"`
	}{Reason: reason, Changes: changes})
	if err != nil {
		return err
	}
	feedback := string(payload)
	e.audit("record_corrected", &feedback)
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
