package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to wrapped command errors.
const (
	CodeValidationFailed = "COMMAND_VALIDATION_FAILED"
	CodeCanceled         = "COMMAND_CONTEXT_CANCELED"
	CodeTimeout          = "COMMAND_CONTEXT_TIMEOUT"
	CodeContextError     = "COMMAND_CONTEXT_ERROR"
	CodeExecutionFailed  = "COMMAND_EXECUTION_FAILED"
)

// wrapper tags an error once; errors already wrapped by go-errors keep
// their category and code.
type wrapper func(err error) error

func validationWrapper(message, code string) wrapper {
	return func(err error) error {
		if err == nil || goerrors.IsWrapped(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, message).WithTextCode(code)
	}
}

func commandWrapper(message, code string) wrapper {
	return func(err error) error {
		if err == nil || goerrors.IsWrapped(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
	}
}

var (
	wrapValidation = validationWrapper("command validation failed", CodeValidationFailed)
	wrapCanceled   = commandWrapper("command execution cancelled", CodeCanceled)
	wrapTimeout    = commandWrapper("command execution deadline exceeded", CodeTimeout)
	wrapContext    = commandWrapper("command context error", CodeContextError)
	wrapExecute    = commandWrapper("command execution failed", CodeExecutionFailed)
)

func wrapValidationError(err error) error {
	return wrapValidation(err)
}

func wrapContextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return wrapCanceled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return wrapTimeout(err)
	default:
		return wrapContext(err)
	}
}

func wrapExecuteError(err error) error {
	return wrapExecute(err)
}

// IsValidationError reports whether a command was rejected before running.
func IsValidationError(err error) bool {
	return err != nil && goerrors.IsCategory(err, goerrors.CategoryValidation)
}
