// Package apperrors defines the error taxonomy shared by the ledger services
// and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers deciding how to react
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindState
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindStorage:
		return "storage"
	default:
		return "unexpected"
	}
}

// Stable reason codes surfaced to transport collaborators
const (
	ReasonUnknownAccount      = "unknown_account"
	ReasonMalformedParams     = "malformed_params"
	ReasonLimitReached        = "limit_reached"
	ReasonAlreadyClaimed      = "already_claimed"
	ReasonNoSpinsLeft         = "no_spins_left"
	ReasonInsufficientBalance = "insufficient_balance"
	ReasonNoPayoutDestination = "no_payout_destination"
	ReasonStorageFailure      = "storage_failure"
	ReasonUnexpected          = "unexpected"
)

// Error is a classified error carrying a stable reason code
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and reason so wrapped sentinels compare equal
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

// Sentinel errors returned by the ledger services
var (
	ErrAccountNotFound     = &Error{Kind: KindValidation, Reason: ReasonUnknownAccount, Message: "account not found"}
	ErrMalformedParams     = &Error{Kind: KindValidation, Reason: ReasonMalformedParams, Message: "malformed parameters"}
	ErrLimitReached        = &Error{Kind: KindState, Reason: ReasonLimitReached, Message: "daily ad limit reached"}
	ErrAlreadyClaimed      = &Error{Kind: KindState, Reason: ReasonAlreadyClaimed, Message: "bonus already claimed today"}
	ErrNoSpinsLeft         = &Error{Kind: KindState, Reason: ReasonNoSpinsLeft, Message: "no spins left"}
	ErrInsufficientBalance = &Error{Kind: KindState, Reason: ReasonInsufficientBalance, Message: "insufficient balance"}
	ErrNoPayoutDestination = &Error{Kind: KindState, Reason: ReasonNoPayoutDestination, Message: "no payout destination set"}
)

// Validation returns a malformed-params error with a specific message
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Reason: ReasonMalformedParams, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. Nil stays nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStorage, Reason: ReasonStorageFailure, Message: "storage failure", Err: err}
}

// KindOf returns the kind of err, KindUnexpected for unclassified errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// ReasonOf returns the stable reason code for err
func ReasonOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ReasonUnexpected
}

// MessageOf returns a user-facing message without internal causes
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// IsStorage reports whether err is a storage failure
func IsStorage(err error) bool {
	return err != nil && KindOf(err) == KindStorage
}

// HTTPStatus maps an error to the status code used by the HTTP handlers
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		if ReasonOf(err) == ReasonUnknownAccount {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case KindState:
		return http.StatusConflict
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
