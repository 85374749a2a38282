package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
)

// Event types published by ProgressReporter.
const (
	EventStarted   = "started"
	EventProgress  = "progress"
	EventCompleted = "completed"
)

// Event is the JSON value of a progress message. Messages are keyed by table,
// so the events of one table stay ordered within a partition.
type Event struct {
	Type      string    `json:"type"`
	LoadID    string    `json:"load_id,omitempty"`
	Table     string    `json:"table"`
	Batch     int       `json:"batch,omitempty"`
	Batches   int       `json:"batches"`
	Committed int       `json:"committed"`
	Total     int       `json:"total"`
	Percent   int       `json:"percent"`
	Duration  string    `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type progressReporter struct {
	pub Publisher
	log logger.Logger
	now func() time.Time
}

// ProgressReporter returns an inserter.Reporter that publishes every
// notification as an Event. Publish failures are logged and never fail the load.
func ProgressReporter(pub Publisher, log logger.Logger) inserter.Reporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &progressReporter{pub: pub, log: log, now: time.Now}
}

func (r *progressReporter) Started(ctx context.Context, s inserter.Start) {
	r.publish(ctx, Event{
		Type:    EventStarted,
		Table:   s.Table,
		Batches: s.Batches,
		Total:   s.Total,
	})
}

func (r *progressReporter) Committed(ctx context.Context, p inserter.Progress) {
	r.publish(ctx, Event{
		Type:      EventProgress,
		Table:     p.Table,
		Batch:     p.Batch,
		Batches:   p.Batches,
		Committed: p.Committed,
		Total:     p.Total,
		Percent:   p.Percent(),
	})
}

func (r *progressReporter) Finished(ctx context.Context, s inserter.Summary) {
	r.publish(ctx, Event{
		Type:      EventCompleted,
		Table:     s.Table,
		Batches:   s.Batches,
		Committed: s.Inserted,
		Total:     s.Inserted,
		Percent:   100,
		Duration:  s.Duration.String(),
	})
}

func (r *progressReporter) publish(ctx context.Context, e Event) {
	e.LoadID = logger.LoadIDFromContext(ctx)
	e.Timestamp = r.now().UTC()

	val, err := json.Marshal(e)
	if err == nil {
		err = r.pub.Send(ctx, []byte(e.Table), val,
			kafka.Header{Key: "event", Value: []byte(e.Type)},
		)
	}
	if err != nil {
		r.log.LogAttrs(ctx, logger.WarnLevel, "progress event not published",
			logger.String("table", e.Table),
			logger.String("event", e.Type),
			logger.Err(err),
		)
	}
}
