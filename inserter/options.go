package inserter

// DefaultBatchSize is the number of rows committed per batch when no
// batch size is configured.
const DefaultBatchSize = 5000

// CommitMode selects the transactional boundary of an insert.
type CommitMode int

const (
	// CommitPerBatch commits every batch in its own transaction. A failure
	// leaves the batches before it committed.
	CommitPerBatch CommitMode = iota
	// CommitOnce runs every batch in one transaction committed at the end.
	// A failure rolls back the whole insert.
	CommitOnce
)

func (m CommitMode) String() string {
	switch m {
	case CommitPerBatch:
		return "per_batch"
	case CommitOnce:
		return "once"
	default:
		return "unknown"
	}
}

// ParseCommitMode maps "per_batch" and "once" to a CommitMode.
// An empty string selects CommitPerBatch.
func ParseCommitMode(s string) (CommitMode, error) {
	switch s {
	case "", "per_batch":
		return CommitPerBatch, nil
	case "once":
		return CommitOnce, nil
	default:
		return 0, ErrInvalidCommitMode
	}
}

// Option represents a functional configuration option for the Inserter.
type Option func(*Inserter)

// WithBatchSize sets the batch size used by Insert. The value must be greater than zero.
func WithBatchSize(size int) Option {
	return func(i *Inserter) {
		i.batchSize = size
	}
}

// WithReporter adds progress reporters next to the built-in log reporter.
func WithReporter(r ...Reporter) Option {
	return func(i *Inserter) {
		i.reporters = append(i.reporters, r...)
	}
}

// WithCommitMode sets the transactional boundary. CommitPerBatch is the default.
func WithCommitMode(mode CommitMode) Option {
	return func(i *Inserter) {
		i.mode = mode
	}
}

func (i *Inserter) validate() error {
	if i.batchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if i.mode != CommitPerBatch && i.mode != CommitOnce {
		return ErrInvalidCommitMode
	}
	return nil
}
