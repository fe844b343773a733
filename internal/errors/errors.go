package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure causes shells can branch on.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	KindEmptyPlan        Kind = "EMPTY_PLAN"
	KindDuplicateTargets Kind = "DUPLICATE_TARGETS"
	KindRenameIO         Kind = "RENAME_IO"
	KindParse            Kind = "PARSE"
	KindInternal         Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"-"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, EmptyPlan("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

func InvalidParameter(message string, details any) *Error {
	return &Error{
		Kind:    KindInvalidParameter,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: details,
	}
}

func EmptyPlan(message string) *Error {
	if message == "" {
		message = "nothing to do"
	}
	return &Error{
		Kind:    KindEmptyPlan,
		Message: message,
		Code:    http.StatusUnprocessableEntity,
	}
}

func DuplicateTargets(message string, details any) *Error {
	return &Error{
		Kind:    KindDuplicateTargets,
		Message: message,
		Code:    http.StatusConflict,
		Details: details,
	}
}

func RenameIO(message string, err error) *Error {
	return &Error{
		Kind:    KindRenameIO,
		Message: message,
		Code:    http.StatusConflict,
		Err:     err,
	}
}

func Parse(path string, err error) *Error {
	return &Error{
		Kind:    KindParse,
		Message: fmt.Sprintf("malformed undo file %s", path),
		Code:    http.StatusUnprocessableEntity,
		Details: map[string]string{"path": path},
		Err:     err,
	}
}

func Internal(message string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: message,
		Code:    http.StatusInternalServerError,
		Err:     err,
	}
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As converts err into an *Error, wrapping foreign errors as internal failures.
func As(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return Internal(err.Error(), nil)
}
