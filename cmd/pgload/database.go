package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/wb-go/pgbulk/dbpg"
	pgxdriver "github.com/wb-go/pgbulk/dbpg/pgx-driver"
	"github.com/wb-go/pgbulk/dbpg/pgx-driver/transaction"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
	"github.com/wb-go/pgbulk/retry"
)

// database is a connection the loader owns for the duration of a run.
type database interface {
	inserter.Conn
	// ExecScript runs script in a single transaction.
	ExecScript(ctx context.Context, name, script string) error
	Close()
}

func openDatabase(ctx context.Context, driver, dsn string, log logger.Logger) (database, error) {
	if driver == driverPq {
		db, err := dbpg.Connect(ctx, dsn,
			retry.Strategy{Attempts: 5, Delay: 200 * time.Millisecond, Backoff: 2},
			&dbpg.Options{MaxOpenConns: 2, MaxIdleConns: 2},
		)
		if err != nil {
			return nil, err
		}
		return &pqDatabase{DB: db}, nil
	}

	pg, err := pgxdriver.New(dsn, log,
		pgxdriver.MaxPoolSize(2),
		pgxdriver.MaxConnAttempts(5),
	)
	if err != nil {
		return nil, err
	}
	tm, err := transaction.NewManager(pg, log)
	if err != nil {
		pg.Close()
		return nil, err
	}
	return &pgxDatabase{Manager: tm, pg: pg}, nil
}

type pgxDatabase struct {
	transaction.Manager
	pg *pgxdriver.Postgres
}

func (d *pgxDatabase) ExecScript(ctx context.Context, name, script string) error {
	return d.ExecuteInTransaction(ctx, name, func(qe pgxdriver.QueryExecuter) error {
		_, err := qe.Exec(ctx, script)
		return err
	})
}

func (d *pgxDatabase) Close() { d.pg.Close() }

type pqDatabase struct {
	*dbpg.DB
}

func (d *pqDatabase) ExecScript(ctx context.Context, _, script string) error {
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, script)
		return err
	})
}

func (d *pqDatabase) Close() { _ = d.DB.Close() }
