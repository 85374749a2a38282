package cleanenvport

import (
	"net"
	"net/url"
	"strconv"
)

// ConnectionConfig holds PostgreSQL connection settings.
//
//	{"host": "localhost", "port": 5432, "database": "app", "user": "loader", "password": "secret"}
type ConnectionConfig struct {
	Host     string `json:"host" yaml:"host" env:"PGHOST" validate:"required"`
	Port     int    `json:"port" yaml:"port" env:"PGPORT" env-default:"5432" validate:"min=1,max=65535"`
	Database string `json:"database" yaml:"database" env:"PGDATABASE" validate:"required"`
	User     string `json:"user" yaml:"user" env:"PGUSER" validate:"required"`
	Password string `json:"password" yaml:"password" env:"PGPASSWORD"`
	SSLMode  string `json:"sslmode" yaml:"sslmode" env:"PGSSLMODE" env-default:"disable" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// LoadConnection reads and validates a connection settings file.
func LoadConnection(path string) (ConnectionConfig, error) {
	var cfg ConnectionConfig
	if err := LoadPath(path, &cfg); err != nil {
		return ConnectionConfig{}, err
	}
	return cfg, nil
}

// DSN returns the settings as a postgres:// URL accepted by both pgx and lib/pq.
func (c ConnectionConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}
