package response

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Response is the wire envelope shared by every REST endpoint. Data carries
// per-field validation details when present.
type Response struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
}

func OK(message string) Response {
	return Response{
		Message: message,
		Code:    http.StatusOK,
	}
}

func Created(message string) Response {
	return Response{
		Message: message,
		Code:    http.StatusCreated,
	}
}

func Error(code int, message string) Response {
	return Response{
		Message: message,
		Code:    code,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]string, 0, len(errs))

	for _, err := range errs {
		switch err.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("field %s is required", err.Field()))
		case "email":
			details = append(details, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min":
			details = append(details, fmt.Sprintf("field %s is too short", err.Field()))
		default:
			details = append(details, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Message: "Validation failed, entered data is incorrect",
		Code:    http.StatusUnprocessableEntity,
		Data:    details,
	}
}
