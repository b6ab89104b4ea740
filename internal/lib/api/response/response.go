package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// User-facing messages shared by several handlers.
const (
	MsgInternal      = "서버 오류가 발생했습니다."
	MsgBadRequest    = "잘못된 요청입니다."
	MsgDecode        = "요청 형식이 올바르지 않습니다."
	MsgRequired      = "필수 항목을 모두 입력해주세요."
	MsgLoginRequired = "로그인이 필요합니다."
	MsgAdminRequired = "관리자 권한이 필요합니다."
	MsgPasswordShort = "비밀번호는 8자 이상이어야 합니다."
	MsgPasswordLong  = "비밀번호가 너무 깁니다. (최대 72바이트)"
	MsgInvalidEmail  = "올바른 이메일 형식이 아닙니다."
)

type Response struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK() Response {
	return Response{Success: true}
}

func Message(msg string) Response {
	return Response{Success: true, Message: msg}
}

func Error(msg string) Response {
	return Response{Error: msg}
}

// Fail writes an error envelope with the given status code.
func Fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}

// ValidationError turns the first validator failure into a message that can be shown
// to the user as is. overrides maps a validator tag to a message for the caller's form.
func ValidationError(err error, overrides ...map[string]string) Response {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return Error(MsgBadRequest)
	}

	fe := errs[0]

	for _, o := range overrides {
		if msg, ok := o[fe.Tag()]; ok {
			return Error(msg)
		}
	}

	switch fe.Tag() {
	case "required":
		return Error(MsgRequired)
	case "email":
		return Error(MsgInvalidEmail)
	case "min":
		if fe.Field() == "Password" || fe.Field() == "NewPassword" {
			return Error(MsgPasswordShort)
		}
		return Error(MsgBadRequest)
	default:
		return Error(MsgBadRequest)
	}
}
