package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-jszoo/internal/catalog"
	"github.com/goliatone/go-jszoo/internal/conformance"
	"github.com/goliatone/go-jszoo/internal/metadata"
	"github.com/goliatone/go-jszoo/internal/render"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
	catalogFormatCode       = "CATALOG_FORMAT_ERROR"
	catalogDataCode         = "CATALOG_DATA_INCONSISTENT"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError tags malformed documents and fragments as validation
// failures so callers can tell bad input from broken runs.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if IsFormatError(err) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "catalog document is malformed").
			WithTextCode(catalogFormatCode)
	}
	var dataErr *catalog.DataError
	if errors.As(err, &dataErr) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "catalog inputs are inconsistent").
			WithTextCode(catalogDataCode)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}

// IsFormatError reports whether err carries a document or results format error.
func IsFormatError(err error) bool {
	var (
		metaErr   *metadata.FormatError
		renderErr *render.FormatError
		confErr   *conformance.FormatError
	)
	return errors.As(err, &metaErr) || errors.As(err, &renderErr) || errors.As(err, &confErr)
}
