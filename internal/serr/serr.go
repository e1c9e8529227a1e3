// Package serr defines the service error type carrying an HTTP status code
// and a message safe to expose to callers.
package serr

import "fmt"

type ServiceError struct {
	Err        error
	Msg        string
	Detail     string
	StatusCode int
}

// New creates a ServiceError with a public message. The wrapped error is
// logged at the HTTP boundary but never returned to the caller.
func New(err error, statusCode int, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: statusCode,
	}
}

// WithDetail attaches a secondary public message rendered in the error
// envelope's detail field.
func (e *ServiceError) WithDetail(detail string, args ...any) *ServiceError {
	e.Detail = fmt.Sprintf(detail, args...)
	return e
}

func (e *ServiceError) Error() string {
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
