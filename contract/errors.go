package contract

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a rejected registry operation.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindConflict      ErrorKind = "CONFLICT"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindCapacity      ErrorKind = "CAPACITY"
	KindPaused        ErrorKind = "PAUSED"
)

// Kind sentinels. errors.Is(err, ErrConflict) holds for every conflict error.
var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict error")
	ErrAuthorization = errors.New("authorization error")
	ErrCapacity      = errors.New("capacity error")
	ErrPaused        = errors.New("paused error")
)

// Code sentinels, matched by code regardless of field or message.
var (
	ErrInvalidIdentifier   = &RegistryError{Kind: KindValidation, Code: "InvalidIdentifier"}
	ErrInvalidYear         = &RegistryError{Kind: KindValidation, Code: "InvalidYear"}
	ErrInvalidMeasure      = &RegistryError{Kind: KindValidation, Code: "InvalidMeasure"}
	ErrInvalidInput        = &RegistryError{Kind: KindValidation, Code: "InvalidInput"}
	ErrArityMismatch       = &RegistryError{Kind: KindValidation, Code: "ArityMismatch"}
	ErrBatchTooLarge       = &RegistryError{Kind: KindCapacity, Code: "BatchTooLarge"}
	ErrMintLimitReached    = &RegistryError{Kind: KindCapacity, Code: "MintLimitReached"}
	ErrDuplicateIdentifier = &RegistryError{Kind: KindConflict, Code: "DuplicateIdentifier"}
	ErrNotFound            = &RegistryError{Kind: KindConflict, Code: "NotFound"}
	ErrNotInitialized      = &RegistryError{Kind: KindConflict, Code: "NotInitialized"}
	ErrAlreadyInitialized  = &RegistryError{Kind: KindConflict, Code: "AlreadyInitialized"}
	ErrUnauthorized        = &RegistryError{Kind: KindAuthorization, Code: "Unauthorized"}
	ErrRegistryPaused      = &RegistryError{Kind: KindPaused, Code: "RegistryPaused"}
	ErrMintingPaused       = &RegistryError{Kind: KindPaused, Code: "MintingPaused"}
)

// RegistryError is returned for every rejected operation. Field and Limit
// identify the violated constraint; BatchIndex is set when the failure came
// from one entry of a batch.
type RegistryError struct {
	Kind       ErrorKind
	Code       string
	Field      string
	Limit      string
	Message    string
	BatchIndex *int
}

func (e *RegistryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Message == "" {
		msg = e.Code
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field=%s", e.Field)
		if e.Limit != "" {
			msg += fmt.Sprintf(", limit=%s", e.Limit)
		}
		msg += ")"
	}
	if e.BatchIndex != nil {
		msg = fmt.Sprintf("batch entry %d: %s", *e.BatchIndex, msg)
	}
	return msg
}

// Is matches kind sentinels and code sentinels.
func (e *RegistryError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrAuthorization:
		return e.Kind == KindAuthorization
	case ErrCapacity:
		return e.Kind == KindCapacity
	case ErrPaused:
		return e.Kind == KindPaused
	}
	var re *RegistryError
	if errors.As(target, &re) {
		return re.Code == e.Code && re.Kind == e.Kind
	}
	return false
}

func newRegistryError(sentinel *RegistryError, field, limit, format string, args ...interface{}) *RegistryError {
	return &RegistryError{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Field:   field,
		Limit:   limit,
		Message: fmt.Sprintf(format, args...),
	}
}

// atBatchIndex tags a registry error with the batch entry that produced it.
// Non-registry errors are wrapped with the index in the message.
func atBatchIndex(err error, index int) error {
	var re *RegistryError
	if errors.As(err, &re) {
		tagged := *re
		tagged.BatchIndex = &index
		return &tagged
	}
	return fmt.Errorf("batch entry %d: %w", index, err)
}
