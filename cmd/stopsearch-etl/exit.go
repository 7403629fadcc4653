package main

import (
	"errors"
	"fmt"

	bfdomain "stopsearch/internal/services/backfill/domain"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1 // nothing succeeded or the command itself failed
	ExitPartial = 2 // some forces or months failed
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *exitError) Unwrap() error { return e.err }

func failure(msg string, err error) error { return &exitError{code: ExitFailure, msg: msg, err: err} }

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

// summaryErr turns a run summary into the command's exit status
func summaryErr(sum bfdomain.MultiForceSummary) error {
	switch {
	case sum.ForcesFailed > 0 && sum.ForcesCompleted == 0:
		return &exitError{code: ExitFailure, msg: fmt.Sprintf("all %d forces failed", sum.ForcesFailed)}
	case sum.Partial():
		return &exitError{
			code: ExitPartial,
			msg:  fmt.Sprintf("partial failure: %d forces and %d months failed", sum.ForcesFailed, sum.TotalMonthsFailed),
		}
	}
	return nil
}
