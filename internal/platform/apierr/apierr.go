package apierr

import (
	"errors"
	"fmt"
)

// Error is a non-2xx reply from an upstream API (Notion, Gemini).
type Error struct {
	Service string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	svc := e.Service
	if svc == "" {
		svc = "api"
	}
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("%s error (%d %s): %s", svc, e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s error (%d): %s", svc, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error (%d): %v", svc, e.Status, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s error (%d %s)", svc, e.Status, e.Code)
	}
	return fmt.Sprintf("%s error (%d)", svc, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(service string, status int, code, message string) *Error {
	return &Error{Service: service, Status: status, Code: code, Message: message}
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
