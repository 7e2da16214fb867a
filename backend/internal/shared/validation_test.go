package shared

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationMessage(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	type form struct {
		ContactEmail string `validate:"omitempty,email"`
		ParentName   string `validate:"max=3"`
	}

	err := validate.Struct(form{ContactEmail: "not-an-email", ParentName: "Rosa Torres"})
	assert.Equal(t, "invalid field contactemail: failed email", ValidationMessage(err))

	assert.Equal(t, "invalid request", ValidationMessage(errors.New("boom")))
}
