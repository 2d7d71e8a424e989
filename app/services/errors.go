package services

import (
	"errors"
	"net/http"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
)

// Error is a domain failure that knows its HTTP status. Wrap it with
// fmt.Errorf("%w: ...") to add detail; callers match with errors.Is.
type Error struct {
	status int
	msg    string
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) HTTPStatus() int { return e.status }

var (
	ErrNotFound          = &Error{http.StatusNotFound, "resource not found"}
	ErrRoleMismatch      = &Error{http.StatusForbidden, "role not permitted"}
	ErrOwnershipMismatch = &Error{http.StatusForbidden, "resource belongs to another user"}
	ErrUnverifiedSeller  = &Error{http.StatusForbidden, "seller is not verified"}
	ErrUnknownUser       = &Error{http.StatusForbidden, "forbidden access"}
	ErrConflictingState  = &Error{http.StatusConflict, "conflicting state"}
	ErrInvalidInput      = &Error{http.StatusUnprocessableEntity, "invalid input"}
	ErrProviderFailure   = &Error{http.StatusInternalServerError, "payment provider unavailable"}
)

// storeErr turns repositories.ErrNotFound into ErrNotFound and leaves other
// errors alone.
func storeErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
