package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("watch ad: %w", ErrLimitReached)

	assert.True(t, errors.Is(err, ErrLimitReached))
	assert.False(t, errors.Is(err, ErrAlreadyClaimed))
	assert.Equal(t, KindState, KindOf(err))
	assert.Equal(t, ReasonLimitReached, ReasonOf(err))
}

func TestStorageWrapsOnlyUnclassifiedErrors(t *testing.T) {
	assert.Nil(t, Storage(nil))

	cause := errors.New("connection reset")
	err := Storage(cause)
	assert.True(t, IsStorage(err))
	assert.True(t, errors.Is(err, cause), "cause should stay reachable")

	assert.Equal(t, ErrNoSpinsLeft, Storage(ErrNoSpinsLeft), "classified errors pass through")
	assert.False(t, IsStorage(ErrNoSpinsLeft))
}

func TestValidationCarriesMessage(t *testing.T) {
	err := Validation("score must be non-negative, got %d", -1)

	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, ReasonMalformedParams, ReasonOf(err))
	assert.Equal(t, "score must be non-negative, got -1", MessageOf(err))
	assert.True(t, errors.Is(err, ErrMalformedParams))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrAccountNotFound, http.StatusNotFound},
		{ErrMalformedParams, http.StatusBadRequest},
		{ErrInsufficientBalance, http.StatusConflict},
		{Storage(errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
	assert.Equal(t, "an unexpected error occurred", MessageOf(errors.New("boom")))
}
