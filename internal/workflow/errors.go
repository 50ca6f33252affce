package workflow

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownOperation means the operation name is not in the transition table.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrForbidden means the actor's role, district, or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("operation not permitted for this actor")
	// ErrInvalidState means the operation is not defined for the
	// application's current status.
	ErrInvalidState = errors.New("operation not allowed in current status")
	// ErrOTPRequired is the two-phase confirmation response on the first DA
	// send-back: no state change, no audit entry, the caller must retry with
	// a verified OTP flag.
	ErrOTPRequired = errors.New("otp verification required")
)

// GuardError is a failed precondition with a user-facing message. No state
// change and no audit entry result from a guard failure.
type GuardError struct {
	Msg string
}

func (e *GuardError) Error() string {
	return e.Msg
}

// ValidationError aggregates user-correctable input failures, one message
// per failed rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}
