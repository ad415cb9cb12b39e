package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	assert.ErrorIs(t, ErrEventNotActive, ErrNotFound)
	assert.ErrorIs(t, ErrInvalidQuantity, ErrInvalidInput)
	assert.ErrorIs(t, &CorrectionError{Available: 3, Requested: 10}, ErrCapacityViolation)
	assert.ErrorIs(t, ErrDuplicateRequest, ErrConflict)
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("insert sale", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence failure", PublicMessage(err))
	assert.Nil(t, Persistence("noop", nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		ErrTicketTypeNotFound:                      http.StatusNotFound,
		ErrInvalidOperation:                        http.StatusBadRequest,
		&CorrectionError{Available: 1, Requested: 2}: http.StatusConflict,
		ErrTicketTypeInUse:                         http.StatusConflict,
		ErrForbidden:                               http.StatusForbidden,
		Persistence("x", errors.New("y")):          http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestCorrectionErrorMessage(t *testing.T) {
	err := &CorrectionError{Available: 3, Requested: 10}
	assert.Equal(t, "correction of 10 exceeds the 3 tickets recorded", err.Error())
}
