package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wb-go/pgbulk/inserter"
)

var (
	// ErrTransactionTimeout is returned when a transaction exceeds its context deadline.
	ErrTransactionTimeout = errors.New("transaction timeout")
	// ErrConflictingData indicates a unique constraint violation (PostgreSQL error code 23505).
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")
	// ErrInvalidData indicates a foreign key violation (PostgreSQL error code 23503),
	// or a row rejected by a NOT NULL or CHECK constraint.
	ErrInvalidData = errors.New("invalid data")
)

// HandleError wraps err with the operation and step it happened in and names
// the PostgreSQL condition behind it. Constraint violations also match
// ErrConflictingData or ErrInvalidData; the driver error stays reachable
// through errors.As. Connection failures come back as *inserter.ConnectionError.
// If err is nil, HandleError returns nil.
func HandleError(operation, step string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %s: %w: %w", operation, step, ErrTransactionTimeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %s: canceled: %w", operation, step, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01":
			return fmt.Errorf("%s: %s: deadlock: %w", operation, step, err)
		case "40001":
			return fmt.Errorf("%s: %s: serialization failure: %w", operation, step, err)
		case "57014":
			return fmt.Errorf("%s: %s: statement timeout: %w", operation, step, err)
		case "55P03":
			return fmt.Errorf("%s: %s: lock timeout: %w", operation, step, err)
		case "23505":
			return fmt.Errorf("%s: %s: unique constraint violation: %w: %w",
				operation, step, ErrConflictingData, err)
		case "23503":
			return fmt.Errorf("%s: %s: foreign key violation: %w: %w",
				operation, step, ErrInvalidData, err)
		case "23502", "23514":
			return fmt.Errorf("%s: %s: constraint violation: %w: %w",
				operation, step, ErrInvalidData, err)
		}
		if isConnectionClass(pgErr.Code) {
			return &inserter.ConnectionError{Op: operation, Err: err}
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &inserter.ConnectionError{Op: operation, Err: err}
	}

	return fmt.Errorf("%s: %s: %w", operation, step, err)
}

// isConnectionClass reports whether code belongs to SQLSTATE class 08.
func isConnectionClass(code string) bool {
	return len(code) == 5 && code[:2] == "08"
}
