package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type form struct {
	Name     string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Password string `validate:"omitempty,min=8"`
}

func TestValidationError(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name      string
		in        form
		overrides []map[string]string
		want      string
	}{
		{name: "required", in: form{}, want: MsgRequired},
		{name: "required override", in: form{}, overrides: []map[string]string{{"required": "모든 필드를 입력해주세요."}}, want: "모든 필드를 입력해주세요."},
		{name: "email", in: form{Name: "a", Email: "nope"}, want: MsgInvalidEmail},
		{name: "short password", in: form{Name: "a", Password: "short"}, want: MsgPasswordShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			assert.Equal(t, tt.want, ValidationError(err, tt.overrides...).Error)
		})
	}
}

func TestValidationError_NotValidatorError(t *testing.T) {
	assert.Equal(t, MsgBadRequest, ValidationError(errors.New("boom")).Error)
}
