package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Categories. Every error returned by a service wraps exactly one of them.
var (
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrAuthorization  = fmt.Errorf("not authorized")
	ErrNotFound       = fmt.Errorf("not found")
	ErrValidation     = fmt.Errorf("invalid request")
	ErrConflict       = fmt.Errorf("conflict")
	ErrTransient      = fmt.Errorf("infrastructure temporarily unavailable")
)

var (
	ErrMissingCredential = fmt.Errorf("%w: missing credential", ErrAuthentication)
	ErrInvalidCredential = fmt.Errorf("%w: invalid or expired credential", ErrAuthentication)
	ErrIdentityRejected  = fmt.Errorf("%w: identity rejected", ErrAuthentication)

	ErrNotParticipant = fmt.Errorf("%w: requester is not a participant", ErrAuthorization)
	ErrBlocked        = fmt.Errorf("%w: one of the parties is blocked", ErrAuthorization)
	ErrNotSender      = fmt.Errorf("%w: only the sender may remove a message", ErrAuthorization)
	ErrNotRecipient   = fmt.Errorf("%w: notification belongs to another user", ErrAuthorization)
	ErrInternalOnly   = fmt.Errorf("%w: internal endpoint", ErrAuthorization)
	ErrReservedRoom   = fmt.Errorf("%w: room is managed by the server", ErrAuthorization)

	ErrConversationNotFound = fmt.Errorf("%w: conversation", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("%w: message", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)
	ErrIdentityNotFound     = fmt.Errorf("%w: identity", ErrNotFound)

	ErrTooFewMembers     = fmt.Errorf("%w: a conversation needs at least two members", ErrValidation)
	ErrEmptyMessage      = fmt.Errorf("%w: message has neither content nor media", ErrValidation)
	ErrEmptyEmoji        = fmt.Errorf("%w: emoji is required", ErrValidation)
	ErrUnknownEvent      = fmt.Errorf("%w: unknown event", ErrValidation)
	ErrInvalidPayload    = fmt.Errorf("%w: malformed payload", ErrValidation)
	ErrInvalidDescriptor = fmt.Errorf("%w: push descriptor is empty", ErrValidation)

	ErrDuplicatePair = fmt.Errorf("%w: a direct conversation already exists", ErrConflict)

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// Transient marks a store or broker failure as retryable by the caller.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Is and As are re-exported so callers importing this package under the
// name "errors" keep the standard helpers at hand.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// HTTPStatus maps a category onto a status code for the REST surface.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code is the short machine-readable identifier sent in websocket error frames.
func Code(err error) string {
	switch {
	case stderrors.Is(err, ErrAuthentication):
		return "unauthenticated"
	case stderrors.Is(err, ErrAuthorization):
		return "forbidden"
	case stderrors.Is(err, ErrNotFound):
		return "not_found"
	case stderrors.Is(err, ErrValidation):
		return "bad_request"
	case stderrors.Is(err, ErrConflict):
		return "conflict"
	case stderrors.Is(err, ErrTransient):
		return "unavailable"
	default:
		return "internal_error"
	}
}
