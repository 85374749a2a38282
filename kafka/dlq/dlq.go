// Package dlq publishes the rows of a failed batch to a dead-letter topic,
// so they can be inspected and loaded again once the cause is fixed.
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
)

// ErrNotExecution is returned by PublishFailedBatch for an error that does
// not come from a batch.
var ErrNotExecution = errors.New("error does not reference a batch")

// Publisher defines the minimal interface required to send messages to Kafka.
type Publisher interface {
	Send(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// Message is the JSON value of a dead-letter message.
type Message struct {
	LoadID    string    `json:"load_id,omitempty"`
	Table     string    `json:"table"`
	Columns   []string  `json:"columns"`
	Batch     int       `json:"batch"`
	Batches   int       `json:"batches"`
	FirstRow  int       `json:"first_row"`
	Step      string    `json:"step"`
	Error     string    `json:"error"`
	Rows      [][]any   `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// DLQ is a dead-letter queue client.
type DLQ struct {
	producer Publisher
	logger   logger.Logger
}

// New creates a DLQ. The publisher must be configured for the dead-letter topic.
func New(producer Publisher, log logger.Logger) *DLQ {
	if log == nil {
		log = logger.NewNop()
	}
	return &DLQ{producer: producer, logger: log}
}

// PublishFailedBatch sends the rows of the batch that err refers to.
// rows and columns are the ones the failed insert was called with.
func (d *DLQ) PublishFailedBatch(ctx context.Context, err error, columns []string, rows [][]any) error {
	const op = "dlq.PublishFailedBatch"

	var execErr *inserter.ExecutionError
	if !errors.As(err, &execErr) {
		return fmt.Errorf("%s: %w", op, ErrNotExecution)
	}
	w := execErr.Window

	msg := Message{
		LoadID:    logger.LoadIDFromContext(ctx),
		Table:     execErr.Table,
		Columns:   columns,
		Batch:     w.Index + 1,
		Batches:   execErr.Batches,
		FirstRow:  w.Start,
		Step:      string(execErr.Step),
		Error:     execErr.Err.Error(),
		Rows:      rows[min(w.Start, len(rows)):min(w.End, len(rows))],
		Timestamp: time.Now().UTC(),
	}

	val, errMarshal := json.Marshal(msg)
	if errMarshal != nil {
		d.logger.LogAttrs(ctx, logger.ErrorLevel, "failed to marshal dlq payload",
			logger.String("op", op),
			logger.Err(errMarshal),
		)

		msg.Rows = nil
		if val, errMarshal = json.Marshal(msg); errMarshal != nil {
			return fmt.Errorf("%s: marshal: %w", op, errMarshal)
		}
	}

	key := []byte(fmt.Sprintf("%s:%d", msg.Table, msg.Batch))
	if errSend := d.producer.Send(ctx, key, val); errSend != nil {
		return fmt.Errorf("%s: send to kafka: %w", op, errSend)
	}

	d.logger.LogAttrs(ctx, logger.InfoLevel, "failed batch sent to dead-letter topic",
		logger.String("table", msg.Table),
		logger.Int("batch", msg.Batch),
		logger.Int("rows", len(msg.Rows)),
	)
	return nil
}
