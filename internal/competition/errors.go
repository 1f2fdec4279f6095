package competition

import (
	"errors"
	"fmt"

	"github.com/yourusername/stakeleague/internal/models"
)

// Kind classifies an error for callers that translate it into a response
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindValidationFailure   Kind = "validation_failure"
	KindPreconditionFailure Kind = "precondition_failure"
	KindTransientInternal   Kind = "transient_internal"
)

// Reason is the specific cause of a rejected join, stake or proof operation
type Reason string

const (
	ReasonNotFoundOrInactive     Reason = "not_found_or_inactive"
	ReasonCapacityExceeded       Reason = "capacity_exceeded"
	ReasonInvalidSelectionCount  Reason = "invalid_selection_count"
	ReasonInvalidStarSelection   Reason = "invalid_star_selection"
	ReasonStarAlreadyTaken       Reason = "star_already_taken"
	ReasonVerificationIncomplete Reason = "verification_incomplete"
	ReasonInvalidRequest         Reason = "invalid_request"
	ReasonWrongCompetitionType   Reason = "wrong_competition_type"
	ReasonAlreadyEntered         Reason = "already_entered"
	ReasonInsufficientBalance    Reason = "insufficient_balance"
	ReasonProofNotFound          Reason = "proof_not_found"
	ReasonInternal               Reason = "internal"
)

// JoinError is returned for every rejected operation of the join service
type JoinError struct {
	Reason Reason
	Err    error
}

// Sentinels usable with errors.Is; matching compares reasons only
var (
	ErrNotFoundOrInactive     = &JoinError{Reason: ReasonNotFoundOrInactive}
	ErrCapacityExceeded       = &JoinError{Reason: ReasonCapacityExceeded}
	ErrInvalidSelectionCount  = &JoinError{Reason: ReasonInvalidSelectionCount}
	ErrInvalidStarSelection   = &JoinError{Reason: ReasonInvalidStarSelection}
	ErrStarAlreadyTaken       = &JoinError{Reason: ReasonStarAlreadyTaken}
	ErrVerificationIncomplete = &JoinError{Reason: ReasonVerificationIncomplete}
	ErrInvalidRequest         = &JoinError{Reason: ReasonInvalidRequest}
	ErrWrongCompetitionType   = &JoinError{Reason: ReasonWrongCompetitionType}
	ErrAlreadyEntered         = &JoinError{Reason: ReasonAlreadyEntered}
	ErrInsufficientBalance    = &JoinError{Reason: ReasonInsufficientBalance}
	ErrProofNotFound          = &JoinError{Reason: ReasonProofNotFound}
)

func reject(reason Reason, err error) *JoinError {
	return &JoinError{Reason: reason, Err: err}
}

func (e *JoinError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

// Is matches any JoinError carrying the same reason
func (e *JoinError) Is(target error) bool {
	t, ok := target.(*JoinError)
	return ok && t.Reason == e.Reason
}

// Kind maps the reason onto the error taxonomy
func (e *JoinError) Kind() Kind {
	switch e.Reason {
	case ReasonNotFoundOrInactive, ReasonProofNotFound:
		return KindNotFound
	case ReasonInvalidSelectionCount, ReasonInvalidStarSelection, ReasonInvalidRequest:
		return KindValidationFailure
	case ReasonInternal:
		return KindTransientInternal
	default:
		return KindPreconditionFailure
	}
}

// KindOf classifies any error returned by the engine
func KindOf(err error) Kind {
	var je *JoinError
	switch {
	case errors.As(err, &je):
		return je.Kind()
	case errors.Is(err, models.ErrNotFound):
		return KindNotFound
	case errors.Is(err, models.ErrAlreadySettled), errors.Is(err, models.ErrCompetitionClosed):
		return KindPreconditionFailure
	case errors.Is(err, models.ErrInvalidID):
		return KindValidationFailure
	default:
		return KindTransientInternal
	}
}
