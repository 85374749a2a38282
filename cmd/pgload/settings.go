package main

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/wb-go/pgbulk/config"
	"github.com/wb-go/pgbulk/inserter"
)

const (
	appName   = "pgload"
	envPrefix = "PGLOAD"

	driverPgx = "pgx"
	driverPq  = "pq"
)

var (
	errNoTable     = errors.New("destination table is required (--table)")
	errNoSource    = errors.New("source file is required (--file or first argument)")
	errBadDriver   = errors.New("driver must be pgx or pq")
	errBadComma    = errors.New("delimiter must be a single character")
	errNoDatabase  = errors.New("database is not configured (--dsn or --db-config)")
	errNoDLQBroker = errors.New("dead-letter topic needs --kafka-brokers")
)

// settings is the resolved command line of one run.
type settings struct {
	Env        string
	Table      string
	File       string
	BatchSize  int
	CommitMode inserter.CommitMode
	Timeout    time.Duration

	Delimiter  rune
	NullString string
	TrimSpace  bool

	Driver   string
	DSN      string
	DBConfig string

	LoggerConfig string
	LogEngine    string
	LogLevel     string

	SQLDir string
	PreSQL string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CheckpointKey   string
	CheckpointTTL   time.Duration
	ResetCheckpoint bool

	KafkaBrokers  []string
	ProgressTopic string
	DLQTopic      string

	SideAttempts int
}

type flagDef struct {
	short, long, key string
	def              any
	usage            string
}

var flagDefs = []flagDef{
	{"c", "config", "config", "", "config file (yaml, json or toml)"},
	{"", "env-file", "env_file", "", ".env file to load before reading the environment"},
	{"", "env", "env", "prod", "environment name written to every log line"},

	{"t", "table", "load.table", "", "destination table, optionally schema-qualified"},
	{"f", "file", "load.file", "", "CSV file to load"},
	{"b", "batch-size", "load.batch_size", inserter.DefaultBatchSize, "rows per transaction"},
	{"", "commit-mode", "load.commit_mode", "per_batch", "per_batch or once"},
	{"", "timeout", "load.timeout", time.Duration(0), "deadline for the whole load, 0 means none"},

	{"d", "delimiter", "csv.delimiter", ",", "field delimiter"},
	{"", "null-string", "csv.null_string", "", "field value read as NULL"},
	{"", "trim-space", "csv.trim_space", false, "trim white space around fields"},

	{"", "driver", "db.driver", driverPgx, "database driver: pgx or pq"},
	{"", "dsn", "db.dsn", "", "connection URL, overrides --db-config"},
	{"", "db-config", "db.config", "utils_pg_connection.json", "connection settings file"},

	{"", "logger-config", "log.config", "", "logger settings file"},
	{"", "log-engine", "log.engine", "slog", "zap, slog, zerolog or logrus"},
	{"", "log-level", "log.level", "info", "debug, info, warn or error"},

	{"", "sql-dir", "sql.dir", "sql", "directory of SQL scripts"},
	{"", "pre-sql", "sql.pre", "", "script run in a transaction before loading"},

	{"", "redis-addr", "checkpoint.redis_addr", "", "redis address; enables resumable loads"},
	{"", "redis-password", "checkpoint.redis_password", "", "redis password"},
	{"", "redis-db", "checkpoint.redis_db", 0, "redis database"},
	{"", "checkpoint-key", "checkpoint.key", "", "load identity, defaults to the source file name"},
	{"", "checkpoint-ttl", "checkpoint.ttl", 7 * 24 * time.Hour, "how long a checkpoint is kept"},
	{"", "reset-checkpoint", "checkpoint.reset", false, "start from the first row"},

	{"", "kafka-brokers", "kafka.brokers", []string{}, "kafka brokers"},
	{"", "progress-topic", "kafka.progress_topic", "", "topic for progress events"},
	{"", "dlq-topic", "kafka.dlq_topic", "", "topic for rows of a failed batch"},

	{"", "side-attempts", "side.attempts", 3, "attempts per redis or kafka call, 1 disables retries"},
}

// parseSettings resolves args, the config file, the .env file and PGLOAD_*
// variables into settings. Flags win over the environment, which wins over the file.
func parseSettings(args []string) (*settings, error) {
	cfg := config.New(appName)
	for _, f := range flagDefs {
		if err := cfg.DefineFlag(f.short, f.long, f.key, f.def, f.usage); err != nil {
			return nil, err
		}
	}
	if err := cfg.ParseFlags(args); err != nil {
		return nil, err
	}
	// PGLOAD_CONFIG and PGLOAD_ENV_FILE are read before Load binds the environment.
	configFile := cmp.Or(cfg.GetString("config"), os.Getenv(envPrefix+"_CONFIG"))
	envFile := cmp.Or(cfg.GetString("env_file"), os.Getenv(envPrefix+"_ENV_FILE"))
	if err := cfg.Load(configFile, envFile, envPrefix); err != nil {
		return nil, err
	}

	s := &settings{
		Env:             cfg.GetString("env"),
		Table:           cfg.GetString("load.table"),
		File:            cfg.GetString("load.file"),
		BatchSize:       cfg.GetInt("load.batch_size"),
		Timeout:         cfg.GetDuration("load.timeout"),
		NullString:      cfg.GetString("csv.null_string"),
		TrimSpace:       cfg.GetBool("csv.trim_space"),
		Driver:          cfg.GetString("db.driver"),
		DSN:             cfg.GetString("db.dsn"),
		DBConfig:        cfg.GetString("db.config"),
		LoggerConfig:    cfg.GetString("log.config"),
		LogEngine:       cfg.GetString("log.engine"),
		LogLevel:        cfg.GetString("log.level"),
		SQLDir:          cfg.GetString("sql.dir"),
		PreSQL:          cfg.GetString("sql.pre"),
		RedisAddr:       cfg.GetString("checkpoint.redis_addr"),
		RedisPassword:   cfg.GetString("checkpoint.redis_password"),
		RedisDB:         cfg.GetInt("checkpoint.redis_db"),
		CheckpointKey:   cfg.GetString("checkpoint.key"),
		CheckpointTTL:   cfg.GetDuration("checkpoint.ttl"),
		ResetCheckpoint: cfg.GetBool("checkpoint.reset"),
		KafkaBrokers:    cfg.GetStringSlice("kafka.brokers"),
		ProgressTopic:   cfg.GetString("kafka.progress_topic"),
		DLQTopic:        cfg.GetString("kafka.dlq_topic"),
		SideAttempts:    cfg.GetInt("side.attempts"),
	}
	if s.File == "" && len(cfg.Args()) > 0 {
		s.File = cfg.Args()[0]
	}

	mode, err := inserter.ParseCommitMode(cfg.GetString("load.commit_mode"))
	if err != nil {
		return nil, err
	}
	s.CommitMode = mode

	delim := cfg.GetString("csv.delimiter")
	if delim == `\t` {
		delim = "\t"
	}
	if utf8.RuneCountInString(delim) != 1 {
		return nil, fmt.Errorf("%w: %q", errBadComma, delim)
	}
	s.Delimiter, _ = utf8.DecodeRuneInString(delim)

	if s.CheckpointKey == "" && s.File != "" {
		s.CheckpointKey = filepath.Base(s.File)
	}

	return s, s.validate()
}

func (s *settings) validate() error {
	switch {
	case s.Table == "":
		return errNoTable
	case s.File == "":
		return errNoSource
	case s.Driver != driverPgx && s.Driver != driverPq:
		return fmt.Errorf("%w: %q", errBadDriver, s.Driver)
	case s.DSN == "" && s.DBConfig == "":
		return errNoDatabase
	case s.DLQTopic != "" && len(s.KafkaBrokers) == 0:
		return errNoDLQBroker
	}
	return nil
}
