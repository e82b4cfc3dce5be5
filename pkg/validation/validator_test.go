package validation

import (
	"testing"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Kind     string `json:"kind" validate:"omitempty,oneof=general bug feature"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(signup{Email: "a@b.io", Password: "secret1"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Password: "123", Kind: "spam"})
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "email is required.", apperr.Message(err))

	fields := apperr.FieldsOf(err)
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "must be at least 6", fields["password"])
	assert.Contains(t, fields["kind"], "must be one of")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("link", "https://drive.google.com/x", "url"))
	assert.Error(t, Var("link", "not a link", "url"))
}
