package graphql

import "net/http"

// opError carries the REST error envelope through GraphQL execution: the
// handler formats it into the response's error extensions so clients can
// recover {message, code, data}.
type opError struct {
	message string
	code    int
	data    any
}

func (e *opError) Error() string {
	return e.message
}

// Extensions satisfies gqlerrors.ExtendedError.
func (e *opError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.code}
	if e.data != nil {
		ext["data"] = e.data
	}

	return ext
}

func errNotAuthenticated() error {
	return &opError{message: "Not authenticated!", code: http.StatusUnauthorized}
}

func errNotAuthorized() error {
	return &opError{message: "Not authorized!", code: http.StatusForbidden}
}

func errNotFound(message string) error {
	return &opError{message: message, code: http.StatusNotFound}
}

func errValidation(data any) error {
	return &opError{
		message: "Invalid input!",
		code:    http.StatusUnprocessableEntity,
		data:    data,
	}
}

func errInternal() error {
	return &opError{message: "Internal error", code: http.StatusInternalServerError}
}
