package workflow

import (
	"time"

	"github.com/google/uuid"

	"homestay-service/internal/model"
)

type Operation string

const (
	OpSubmit              Operation = "submit"
	OpStartScrutiny       Operation = "start_scrutiny"
	OpForwardToDtdo       Operation = "forward_to_dtdo"
	OpSendBack            Operation = "send_back"
	OpAcceptAndSchedule   Operation = "accept_and_schedule"
	OpReject              Operation = "reject"
	OpRevert              Operation = "revert"
	OpCompleteInspection  Operation = "complete_inspection"
	OpApproveInspection   Operation = "approve_inspection"
	OpRejectInspection    Operation = "reject_inspection"
	OpRaiseObjections     Operation = "raise_objections"
	OpApproveBypass       Operation = "approve_bypass"
	OpResubmitCorrection  Operation = "resubmit_correction"
	OpApproveCancellation Operation = "approve_cancellation"
	OpConfirmPayment      Operation = "confirm_payment"
	OpCorrect             Operation = "correct"
)

// Request carries one transition attempt. Only the fields relevant to the
// requested operation are read.
type Request struct {
	Operation Operation
	Actor     model.Principal

	Remarks     string
	OTPVerified bool

	// accept_and_schedule
	InspectionDate *time.Time
	AssignTo       *uuid.UUID

	// complete_inspection
	ActualInspectionDate  *time.Time
	EarlyOverride         bool
	OverrideJustification string
	Recommendation        string

	// confirm_payment
	PaymentReference string

	// correct
	Fields map[string]string

	// forward_to_dtdo guard input, resolved by the caller from the document
	// store before deciding.
	PendingDocuments int
}

// Event is a notification effect. Dispatch happens after the transaction
// commits and is fire-and-forget.
type Event struct {
	Name          string            `json:"name"`
	ApplicationID uuid.UUID         `json:"application_id"`
	Recipient     uuid.UUID         `json:"recipient"`
	Data          map[string]string `json:"data,omitempty"`
}

const (
	EventApplicationSubmitted = "application_submitted"
	EventApplicationForwarded = "application_forwarded"
	EventApplicationReverted  = "application_reverted"
	EventApplicationRejected  = "application_rejected"
	EventInspectionScheduled  = "inspection_scheduled"
	EventInspectionCompleted  = "inspection_completed"
	EventVerifiedForPayment   = "verified_for_payment"
	EventApplicationApproved  = "application_approved"
	EventCertificateCancelled = "certificate_cancelled"
	EventCorrectionResubmit   = "correction_resubmitted"
	EventObjectionRaised      = "objection_raised"
)

// Decision is the committed outcome of a transition: the mutated records,
// exactly one audit entry, and the notifications to enqueue after commit.
// The engine performs no I/O; the caller persists everything atomically.
type Decision struct {
	Application model.Application
	Audit       model.ApplicationAction

	// Parent carries the updated parent record when a supersession or
	// revocation cascade applies.
	Parent *model.Application

	CompletedOrder *model.InspectionOrder
	NewOrder       *model.InspectionOrder
	Report         *model.InspectionReport

	// NeedsCertificateNumber asks the caller to allocate a district-routed
	// certificate sequence number before persisting.
	NeedsCertificateNumber bool

	Events []Event
}
