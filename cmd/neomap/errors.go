package main

import (
	"context"
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitPartialPush   = 2
	ExitTimeout       = 3
	ExitCancelled     = 4
	ExitConfigError   = 10
	ExitNotFound      = 11
	ExitDatabaseError = 12
)

// CLIError carries an explicit exit code.
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a CLIError wrapping err.
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Cause: err}
}

var errColor = color.New(color.FgRed, color.Bold)

// HandleError prints err to the command's error output and returns the exit code.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln(errColor.Sprint("Error:"), cliErr.Message)
		if cliErr.Cause != nil && globalFlags.Verbose {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	cmd.PrintErrln(errColor.Sprint("Error:"), err)
	return exitCodeFor(neomap.CodeOf(err))
}

func exitCodeFor(code neomap.ErrorCode) int {
	switch code {
	case neomap.ErrCodeConfiguration, neomap.ErrCodeInvalidIdentifier, neomap.ErrCodeAmbiguousIdentity:
		return ExitConfigError
	case neomap.ErrCodeNotFound:
		return ExitNotFound
	case neomap.ErrCodeConnection, neomap.ErrCodeQuery, neomap.ErrCodeResultParsing:
		return ExitDatabaseError
	default:
		return ExitError
	}
}
