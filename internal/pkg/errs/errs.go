package errs

import (
	"errors"
	"fmt"
	"net/http"

	"socialchat/internal/pkg/logx"
)

// CustomError is the error type returned to clients.
// It carries a business code, a user-facing message and the HTTP status to use.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError returns a fresh *CustomError for a registered code.
// Unknown codes degrade to ErrUnknown. When code is ErrUnknown and the first
// detail is an error, that error is logged so the cause is not lost.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Warn("Unknown error code requested", "requested_code", code)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	if code == ErrUnknown && len(details) > 0 {
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	}

	return &customErr
}

// From converts any error into a *CustomError, falling back to ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown, err)
}
