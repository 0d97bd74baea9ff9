package serr

import (
	"fmt"
	"runtime/debug"
)

// ServiceError is an error that carries a user-facing message and the HTTP
// status the transport layer should answer with.
type ServiceError struct {
	Err        error
	Msg        string
	StackTrace string
	StatusCode int
	Env        map[string]string
}

func NewServiceError(err error, statusCode int, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: statusCode,
		StackTrace: string(debug.Stack()),
		Env:        make(map[string]string),
	}
}

// With attaches a diagnostic key/value pair and returns the same error.
func (e *ServiceError) With(key, value string) *ServiceError {
	e.Env[key] = value
	return e
}

func (e *ServiceError) Error() string {
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
