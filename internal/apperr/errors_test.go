package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("joining group: %w", Forbidden("Group is full."))

	assert.True(t, Is(err, KindForbidden))
	assert.Equal(t, "Group is full.", Message(err))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, "Server error", Message(err))
	assert.ErrorIs(t, err, cause)
}

func TestFieldsOf(t *testing.T) {
	err := ValidationFields("Invalid request", map[string]string{"email": "is required"})

	assert.Equal(t, "is required", FieldsOf(err)["email"])
	assert.Nil(t, FieldsOf(errors.New("x")))
}
