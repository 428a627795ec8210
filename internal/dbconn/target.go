// Package dbconn describes the database server a conversion talks to and
// builds driver configurations for it without going through DSN strings.
package dbconn

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
)

// Engine identifies the database server flavour.
type Engine string

const (
	MySQL    Engine = "mysql"
	Postgres Engine = "postgres"
)

// DefaultHost is used when a request does not name a host.
const DefaultHost = "127.0.0.1"

// ParseEngine maps a form value to an Engine. Empty selects MySQL.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database engine: %s", s)
	}
}

// DefaultPort returns the server's well-known port.
func (e Engine) DefaultPort() int {
	if e == Postgres {
		return 5432
	}
	return 3306
}

// Target is everything needed to reach one database server as one user.
// Database is empty until the loaded dump has named it.
type Target struct {
	Engine   Engine
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// NewTarget parses host ("host", "host:port" or "[v6]:port") for engine.
func NewTarget(engine Engine, host, username, password string) (Target, error) {
	h, port, err := ParseHost(engine, host)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Engine:   engine,
		Host:     h,
		Port:     port,
		Username: username,
		Password: password,
	}, nil
}

// ParseHost splits an optional port off host, falling back to DefaultHost
// and the engine's default port.
func ParseHost(engine Engine, host string) (string, int, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return DefaultHost, engine.DefaultPort(), nil
	}

	h, p, err := net.SplitHostPort(host)
	if err != nil {
		// No port, possibly a bare IPv6 literal.
		return strings.Trim(host, "[]"), engine.DefaultPort(), nil
	}

	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in host %q", host)
	}
	if h == "" {
		h = DefaultHost
	}
	return h, port, nil
}

// WithDatabase returns a copy of t pointing at db.
func (t Target) WithDatabase(db string) Target {
	t.Database = db
	return t
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String renders the target for logs with the password masked.
func (t Target) String() string {
	return fmt.Sprintf("%s://%s:[MASKED]@%s/%s", t.Engine, t.Username, t.Addr(), t.Database)
}

// MySQLConfig returns a go-sql-driver/mysql configuration for t.
func (t Target) MySQLConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = t.Username
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = t.Addr()
	cfg.DBName = t.Database
	cfg.ParseTime = true
	return cfg
}

// PgxConfig returns a pgx connection configuration for t.
func (t Target) PgxConfig() (*pgx.ConnConfig, error) {
	// An empty string yields defaults plus any PG* environment settings,
	// which the explicit fields below then override.
	cfg, err := pgx.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("pgx config: %w", err)
	}
	cfg.Host = t.Host
	cfg.Port = uint16(t.Port)
	cfg.User = t.Username
	cfg.Password = t.Password
	cfg.Database = t.Database
	cfg.Fallbacks = nil
	return cfg, nil
}
