package apperror

import "errors"

type Code string

const (
	CodeValidation     Code = "validation"
	CodeNotFound       Code = "not_found"
	CodeDuplicateName  Code = "duplicate_name"
	CodeCycle          Code = "cycle"
	CodeInvalidRequest Code = "invalid_request"
	CodeStorageFailure Code = "storage_failure"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap keeps err reachable through errors.Is / errors.As.
func Wrap(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func DuplicateName(message string) *Error {
	return New(CodeDuplicateName, message)
}

func Cycle(message string) *Error {
	return New(CodeCycle, message)
}

func InvalidRequest(message string) *Error {
	return New(CodeInvalidRequest, message)
}

func StorageFailure(err error) *Error {
	return Wrap(CodeStorageFailure, "storage failure", err)
}

// GetCode reports the kind of err; unclassified errors are storage failures.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeStorageFailure
}

func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}
