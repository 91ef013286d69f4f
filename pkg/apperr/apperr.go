// Package apperr carries the machine-checkable error codes shared by the
// content and post services.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidationFailed       Code = "validation_failed"
	CodeContentPolicyViolation Code = "content_policy_violation"
	CodeInvalidTransition      Code = "invalid_transition"
	CodePreconditionFailed     Code = "precondition_failed"
	CodeScheduleConflict       Code = "schedule_conflict"
	CodeAuthorizationFailed    Code = "authorization_failed"
	CodeGenerationUnavailable  Code = "generation_unavailable"
	CodeNotFound               Code = "not_found"
	CodeInvalidRequest         Code = "invalid_request"
	CodeInternal               Code = "internal"
)

type Error struct {
	Code     Code
	Message  string
	Reasons  []string
	Coaching []string
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code, so sentinels compare by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func (e *Error) WithReasons(reasons ...string) *Error {
	cp := *e
	cp.Reasons = append(append([]string(nil), e.Reasons...), reasons...)
	return &cp
}

func (e *Error) WithCoaching(coaching ...string) *Error {
	cp := *e
	cp.Coaching = append(append([]string(nil), e.Coaching...), coaching...)
	return &cp
}

// As is errors.As for *Error.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeAuthorizationFailed:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeScheduleConflict:
		return http.StatusConflict
	case CodeValidationFailed, CodeContentPolicyViolation, CodePreconditionFailed:
		return http.StatusUnprocessableEntity
	case CodeGenerationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
