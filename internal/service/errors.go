package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Failure kinds returned by the lifecycle and read services. Match them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// LifecycleError carries a failure kind plus a message safe to show to the caller.
type LifecycleError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *LifecycleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// Is matches the failure kind so callers can write errors.Is(err, ErrNotFound).
func (e *LifecycleError) Is(target error) bool {
	return e.Kind == target
}

// ErrorMessage extracts the caller-facing message from a service error.
func ErrorMessage(err error) string {
	var lifecycleErr *LifecycleError
	if errors.As(err, &lifecycleErr) {
		return lifecycleErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func validationFailure(op, message string) error {
	return &LifecycleError{Op: op, Kind: ErrValidation, Message: message}
}

func validatorFailure(op string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		return &LifecycleError{
			Op:      op,
			Kind:    ErrValidation,
			Message: fmt.Sprintf("%s failed on %s", first.Field(), first.Tag()),
			Err:     err,
		}
	}
	return &LifecycleError{Op: op, Kind: ErrValidation, Message: "invalid payload", Err: err}
}

func notFound(op, message string) error {
	return &LifecycleError{Op: op, Kind: ErrNotFound, Message: message}
}

func invalidState(op, message string) error {
	return &LifecycleError{Op: op, Kind: ErrInvalidState, Message: message}
}

func forbidden(op, message string) error {
	return &LifecycleError{Op: op, Kind: ErrForbidden, Message: message}
}

func infrastructure(op string, err error) error {
	return &LifecycleError{Op: op, Kind: ErrInfrastructure, Message: "storage unavailable", Err: err}
}

// ValidationDetails lists every failed field of a validator error keyed by its
// JSON name. It returns nil for any other error.
func ValidationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}
