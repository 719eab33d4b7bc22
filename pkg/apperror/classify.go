package apperror

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classify maps transport-level failures onto taxonomy codes. Adapters use it
// at their boundary so retry decisions can rely on Retryable.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeTimeout, err, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return Wrap(CodeOperationCancelled, err, "operation cancelled")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "40001":
			return Wrap(CodeDatabaseDeadlock, err, "transaction conflict")
		default:
			return Wrap(CodeDatabase, err, "database error")
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return Wrap(CodeDatabase, err, "database connection error")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(CodeTimeout, err, "network timeout")
		}
		return Wrap(CodeNetwork, err, "network error")
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return Wrap(CodeNetwork, err, "connection error")
	}

	return Normalize(err)
}
