package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Sex   string `json:"sex" validate:"omitempty,oneof=M F"`
	Items []item `json:"items" validate:"dive"`
}

type item struct {
	Drug string `json:"drug" validate:"required"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Name: "Ana", Email: "ana@example.com", Sex: "F"}))

	err := v.Validate(&sample{})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, "name", appErr.Field)
	assert.Equal(t, "name is required", appErr.Message)

	err = v.Validate(&sample{Name: "Ana", Sex: "X"})
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "sex", appErr.Field)
	assert.Equal(t, "X", appErr.Value)
}

func TestValidateNestedSlice(t *testing.T) {
	err := New().Validate(&sample{Name: "Ana", Items: []item{{Drug: "aspirin"}, {}}})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "items[1].drug", appErr.Field)
}
