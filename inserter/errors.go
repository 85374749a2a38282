package inserter

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable is returned when the destination table name is empty.
	ErrEmptyTable = errors.New("table name is empty")
	// ErrNoColumns is returned when the column list is empty.
	ErrNoColumns = errors.New("column list is empty")
	// ErrEmptyColumn is returned when a column name is empty.
	ErrEmptyColumn = errors.New("column name is empty")
	// ErrDuplicateColumn is returned when the same column name appears twice.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be > 0")
	// ErrRowWidth is returned when a row does not have exactly one value per column.
	ErrRowWidth = errors.New("row width does not match column count")
	// ErrInvalidCommitMode is returned by New for an unknown CommitMode.
	ErrInvalidCommitMode = errors.New("invalid commit mode")
)

// Check names the precondition a ValidationError refers to.
type Check string

const (
	CheckTable     Check = "table"
	CheckColumns   Check = "columns"
	CheckBatchSize Check = "batch_size"
	CheckRows      Check = "rows"
)

// Step names the phase of a batch in which an ExecutionError happened.
type Step string

const (
	StepBegin    Step = "begin"
	StepExec     Step = "exec"
	StepCommit   Step = "commit"
	StepCanceled Step = "canceled"
)

// ValidationError reports a rejected input. It is returned before the
// connection is touched, so nothing has been written.
type ValidationError struct {
	Check Check
	// Row is the zero-based index of the offending row for CheckRows, -1 otherwise.
	Row int
	Err error
}

func (e *ValidationError) Error() string {
	if e.Check == CheckRows {
		return fmt.Sprintf("validation: %s: row %d: %v", e.Check, e.Row, e.Err)
	}
	return fmt.Sprintf("validation: %s: %v", e.Check, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExecutionError reports a batch that failed at the database layer.
// Batches before Window were committed (Committed rows) unless the insert
// ran in CommitOnce mode, in which case Committed is always zero.
type ExecutionError struct {
	Table     string
	Window    Window
	Batches   int
	Step      Step
	Committed int
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("insert into %s: batch %d/%d (rows %d-%d): %s: %v (committed %d rows)",
		e.Table, e.Window.Index+1, e.Batches, e.Window.Start, e.Window.End-1, e.Step, e.Err, e.Committed)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ConnectionError marks a failure of the connection layer itself, as opposed
// to a statement rejected by the server. Connection providers return it from
// their constructors and from BeginBatch.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnection reports whether err carries a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsCanceled reports whether err comes from a cancelled context or an
// expired deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Committed returns the number of rows durably committed before err
// aborted an insert, or zero when err carries no ExecutionError.
func Committed(err error) int {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Committed
	}
	return 0
}
