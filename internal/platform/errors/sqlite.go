package errors

// SQLite-specific helpers mirroring the Postgres mapping in pg.go

import (
	"context"
	stderrs "errors"

	"github.com/mattn/go-sqlite3"
)

// ExtractSQLiteError returns the driver error if the chain carries one
func ExtractSQLiteError(err error) (sqlite3.Error, bool) {
	var se sqlite3.Error
	if stderrs.As(err, &se) {
		return se, true
	}
	return sqlite3.Error{}, false
}

func isSQLiteUnique(err error) bool {
	se, ok := ExtractSQLiteError(err)
	return ok && (se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// SQLiteErrorCode maps a sqlite3 error to an ErrorCode with an ok flag
func SQLiteErrorCode(err error) (ErrorCode, bool) {
	se, ok := ExtractSQLiteError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch se.Code {
	case sqlite3.ErrConstraint:
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrorCodeDuplicateKey, true
		case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return ErrorCodeValidation, true
		}
		return ErrorCodeInvalidArgument, true
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return ErrorCodeUnavailable, true
	case sqlite3.ErrReadonly, sqlite3.ErrCantOpen:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// IsSQLiteRetryable reports whether the database file was busy or locked
func IsSQLiteRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	se, ok := ExtractSQLiteError(err)
	return ok && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked)
}
