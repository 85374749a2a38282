package main

import (
	"context"
	"errors"
	"time"

	"github.com/wb-go/pgbulk/checkpoint"
	cleanenvport "github.com/wb-go/pgbulk/config/cleanenv-port"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/kafka"
	"github.com/wb-go/pgbulk/kafka/dlq"
	"github.com/wb-go/pgbulk/logger"
	"github.com/wb-go/pgbulk/redis"
	"github.com/wb-go/pgbulk/retry"
	"github.com/wb-go/pgbulk/rowsource"
	"github.com/wb-go/pgbulk/sqlfile"
)

// sideStrategy is the retry strategy of redis and kafka calls.
func sideStrategy(attempts int) retry.Strategy {
	if attempts <= 1 {
		return retry.Once
	}
	return retry.Strategy{Attempts: attempts, Delay: 100 * time.Millisecond, Backoff: 2}
}

// run loads s.File into s.Table and returns the number of rows inserted by this run.
func run(ctx context.Context, s *settings, log logger.Logger) (int, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	src, err := rowsource.Open(s.File, rowsource.Options{
		Comma:      s.Delimiter,
		NullString: s.NullString,
		TrimSpace:  s.TrimSpace,
		SkipEmpty:  true,
	})
	if err != nil {
		return 0, err
	}

	var script string
	if s.PreSQL != "" {
		script, err = sqlfile.New(s.SQLDir).Render(s.PreSQL, map[string]any{"Table": s.Table})
		if err != nil {
			return 0, err
		}
	}

	dsn, err := s.dsn()
	if err != nil {
		return 0, err
	}

	side := sideStrategy(s.SideAttempts)
	opts := []inserter.Option{
		inserter.WithBatchSize(s.BatchSize),
		inserter.WithCommitMode(s.CommitMode),
	}

	offset := 0
	if s.RedisAddr != "" {
		rc := redis.New(s.RedisAddr, s.RedisPassword, s.RedisDB, side)
		defer func() { _ = rc.Close() }()

		cp := checkpoint.New(rc, s.Table, s.CheckpointKey, s.CheckpointTTL, log)
		if s.ResetCheckpoint {
			err = cp.Reset(ctx)
		} else {
			offset, err = cp.Committed(ctx)
		}
		if err != nil {
			return 0, err
		}
		if offset > 0 {
			log.LogAttrs(ctx, logger.InfoLevel, "resuming load",
				logger.String("table", s.Table),
				logger.String("checkpoint", s.CheckpointKey),
				logger.Int("skipped_rows", min(offset, src.Len())),
			)
		}
		opts = append(opts, inserter.WithReporter(cp.Reporter(offset)))
	}
	rows := src.Skip(offset)

	if len(s.KafkaBrokers) > 0 && s.ProgressTopic != "" {
		p := kafka.NewProducer(s.KafkaBrokers, s.ProgressTopic, side, log)
		defer func() { _ = p.Close() }()
		opts = append(opts, inserter.WithReporter(kafka.ProgressReporter(p, log)))
	}

	var deadLetter *dlq.DLQ
	if s.DLQTopic != "" {
		p := kafka.NewProducer(s.KafkaBrokers, s.DLQTopic, side, log)
		defer func() { _ = p.Close() }()
		deadLetter = dlq.New(p, log)
	}

	ins, err := inserter.New(log, opts...)
	if err != nil {
		return 0, err
	}

	db, err := openDatabase(ctx, s.Driver, dsn, log)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if script != "" {
		if err := db.ExecScript(ctx, s.PreSQL, script); err != nil {
			return 0, err
		}
	}

	inserted, err := ins.Insert(ctx, db, s.Table, rows.Headers, rows.Rows)
	if err != nil {
		publishFailedBatch(ctx, deadLetter, err, rows, log)
		return 0, err
	}
	return inserted, nil
}

func publishFailedBatch(ctx context.Context, d *dlq.DLQ, err error, rows *rowsource.Table, log logger.Logger) {
	var execErr *inserter.ExecutionError
	if d == nil || !errors.As(err, &execErr) || execErr.Step == inserter.StepCanceled || inserter.IsCanceled(err) {
		return
	}

	if errDLQ := d.PublishFailedBatch(context.WithoutCancel(ctx), err, rows.Headers, rows.Rows); errDLQ != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "failed batch not sent to dead-letter topic",
			logger.Any("window", execErr.Window),
			logger.Err(errDLQ),
		)
	}
}

func (s *settings) dsn() (string, error) {
	if s.DSN != "" {
		return s.DSN, nil
	}
	conn, err := cleanenvport.LoadConnection(s.DBConfig)
	if err != nil {
		return "", err
	}
	return conn.DSN(), nil
}
