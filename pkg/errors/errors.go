package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

// AppError represents an application error
type AppError struct {
	Kind    Kind              `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUpload
	KindPersistence
	KindNotFound
	KindUnauthorized
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// Sentinels returned by gateway implementations
var (
	ErrNotFound = stderrors.New("resource not found")
	ErrConflict = stderrors.New("resource already exists")
)

// Upload rejections decided before any gateway call
var (
	ErrFileTooLarge        = stderrors.New("file too large")
	ErrUnsupportedFileType = stderrors.New("unsupported file type")
)

// Error constructors
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

func Conflict(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: fmt.Sprintf("%s already exists", resource),
		Err:     err,
	}
}

func Upload(message string, err error) *AppError {
	return &AppError{
		Kind:    KindUpload,
		Message: message,
		Err:     err,
	}
}

func Persistence(message string, err error) *AppError {
	return &AppError{
		Kind:    KindPersistence,
		Message: message,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Message: message,
	}
}

func Configuration(message string, err error) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// FromGateway translates a persistence gateway error. Missing resources
// become NotFound, duplicates Conflict and anything else Persistence.
func FromGateway(resource, message string, err error) *AppError {
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, ErrNotFound):
		return NotFound(resource, err)
	case stderrors.Is(err, ErrConflict):
		return Conflict(resource, err)
	default:
		return Persistence(message, err)
	}
}

// KindOf reports the kind of the first AppError in err's chain.
// Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
