package jiraconv

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	configInvalidCode    = "CONFIG_INVALID"
	directionUnknownCode = "DIRECTION_UNKNOWN"
	readFailedCode       = "INPUT_READ_FAILED"
	writeFailedCode      = "OUTPUT_WRITE_FAILED"
)

func wrapValidationError(err error, code, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(code)
}

func wrapIOError(err error, code, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).
		WithTextCode(code)
}
