package inserter

import (
	"context"
	"time"

	"github.com/wb-go/pgbulk/logger"
)

// Start describes an insert that passed validation and is about to run.
type Start struct {
	Table     string
	Total     int
	BatchSize int
	Batches   int
}

// Progress is emitted after every committed batch.
type Progress struct {
	Table string
	// Batch is the one-based number of the batch just committed.
	Batch     int
	Batches   int
	Committed int
	Total     int
}

// Percent returns the committed share of the row set, rounded down.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Committed * 100 / p.Total
}

// Summary describes a completed insert.
type Summary struct {
	Table    string
	Inserted int
	Batches  int
	Duration time.Duration
}

// Reporter receives progress notifications. Notifications are informational:
// they cannot fail an insert and a Reporter may drop them.
type Reporter interface {
	Started(ctx context.Context, s Start)
	Committed(ctx context.Context, p Progress)
	Finished(ctx context.Context, s Summary)
}

type logReporter struct {
	log logger.Logger
}

// LogReporter returns a Reporter that writes one structured log line per
// notification.
func LogReporter(log logger.Logger) Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Started(ctx context.Context, s Start) {
	r.log.LogAttrs(ctx, logger.InfoLevel, "bulk insert started",
		logger.String("table", s.Table),
		logger.Int("total_rows", s.Total),
		logger.Int("batch_size", s.BatchSize),
		logger.Int("batches", s.Batches),
	)
}

func (r *logReporter) Committed(ctx context.Context, p Progress) {
	r.log.LogAttrs(ctx, logger.InfoLevel, "bulk insert progress",
		logger.String("table", p.Table),
		logger.Int("batch", p.Batch),
		logger.Int("batches", p.Batches),
		logger.Int("committed", p.Committed),
		logger.Int("total_rows", p.Total),
		logger.Int("percent", p.Percent()),
	)
}

func (r *logReporter) Finished(ctx context.Context, s Summary) {
	r.log.LogAttrs(ctx, logger.InfoLevel, "bulk insert completed",
		logger.String("table", s.Table),
		logger.Int("inserted", s.Inserted),
		logger.Int("batches", s.Batches),
		logger.Duration("duration", s.Duration),
	)
}

type multiReporter []Reporter

func (m multiReporter) Started(ctx context.Context, s Start) {
	for _, r := range m {
		r.Started(ctx, s)
	}
}

func (m multiReporter) Committed(ctx context.Context, p Progress) {
	for _, r := range m {
		r.Committed(ctx, p)
	}
}

func (m multiReporter) Finished(ctx context.Context, s Summary) {
	for _, r := range m {
		r.Finished(ctx, s)
	}
}
