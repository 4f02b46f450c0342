package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeQueryCanceled        = "57014"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeExclusionViolation   = "23P01"
	codeUniqueViolation      = "23505"
)

// IsExclusionViolation reports whether err came from an EXCLUDE constraint.
func IsExclusionViolation(err error) bool {
	return hasCode(err, codeExclusionViolation)
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// classify maps driver errors of a single statement to domain error kinds.
// parent is the caller's context, stmtCtx the one carrying the statement
// timeout.
func classify(parent, stmtCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return err
	}
	switch {
	case errors.Is(stmtCtx.Err(), context.DeadlineExceeded), hasCode(err, codeQueryCanceled):
		return fmt.Errorf("%w: statement timed out: %v", domain.ErrTransactionAborted, err)
	case hasCode(err, codeSerializationFailure), hasCode(err, codeDeadlockDetected):
		return fmt.Errorf("%w: %v", domain.ErrTransactionAborted, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
