// Command pgload loads a CSV file into a PostgreSQL table in batches,
// committing every batch in its own transaction.
//
//	pgload --table sales.orders --batch-size 5000 orders.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	cleanenvport "github.com/wb-go/pgbulk/config/cleanenv-port"
	"github.com/wb-go/pgbulk/logger"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	s, err := parseSettings(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}

	log, err := newLogger(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: logger: %v\n", appName, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLoadID(ctx, logger.NewLoadID())

	inserted, err := run(ctx, s, log)
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "load failed",
			logger.String("table", s.Table),
			logger.String("file", s.File),
			logger.Err(err),
		)
		return 1
	}

	log.LogAttrs(ctx, logger.InfoLevel, "load finished",
		logger.String("table", s.Table),
		logger.String("file", s.File),
		logger.Int("inserted", inserted),
	)
	return 0
}

func newLogger(s *settings) (logger.Logger, error) {
	if s.LoggerConfig != "" {
		lc, err := cleanenvport.LoadLogger(s.LoggerConfig)
		if err != nil {
			return nil, err
		}
		return lc.New(appName, s.Env, time.Now())
	}

	engine, err := logger.ParseEngine(s.LogEngine)
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	return logger.InitLogger(engine, appName, s.Env, logger.WithLevel(level))
}
