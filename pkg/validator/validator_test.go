package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color,omitempty" validate:"omitempty,primary"`
	Email string `validate:"omitempty,email"`
}

func primary(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "red", "green", "blue":
		return true
	}
	return false
}

func TestStruct(t *testing.T) {
	v, err := New("validate", map[string]validator.Func{"primary": primary}, map[string]string{
		"primary": "is not a primary color",
	})
	require.NoError(t, err)

	assert.NoError(t, v.Struct(sample{Name: "a", Color: "red"}))

	err = v.Struct(sample{Color: "pink", Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, "name is required; color is not a primary color; Email must be a valid email address", err.Error())

	var verr *Error
	require.True(t, errors.As(err, &verr))
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestDescribe_NotValidation(t *testing.T) {
	_, ok := Describe(errors.New("eof"), nil)
	assert.False(t, ok)
}
