// Package loader executes an uploaded SQL dump against a database server
// using the server's own command-line client, then works out which database
// the dump created or selected.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
)

// ErrNameResolution is returned when the dump has no CREATE DATABASE or USE
// statement to take the database name from.
var ErrNameResolution = errors.New("could not determine database name from SQL file")

// ExecutionError reports a client process that failed to run the dump.
type ExecutionError struct {
	Client string
	Stderr string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := e.Stderr
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return "error executing SQL file: " + msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Clients names the CLI executables per engine.
type Clients struct {
	MySQL string
	Psql  string

	// PsqlDatabase is the database psql connects to before running the dump.
	PsqlDatabase string
}

// Loader runs dumps through the engine's command-line client.
type Loader struct {
	clients Clients
}

// New returns a Loader. Empty client names fall back to "mysql" and "psql".
func New(clients Clients) *Loader {
	if clients.MySQL == "" {
		clients.MySQL = "mysql"
	}
	if clients.Psql == "" {
		clients.Psql = "psql"
	}
	if clients.PsqlDatabase == "" {
		clients.PsqlDatabase = "postgres"
	}
	return &Loader{clients: clients}
}

// Load feeds the script at scriptPath to the client as stdin and returns the
// name of the database the script set up. There is no timeout; the client
// runs until it exits.
func (l *Loader) Load(ctx context.Context, target dbconn.Target, scriptPath string) (string, error) {
	bin, args, env := l.command(target)
	log := logging.WithFields(ctx, "client", bin, "target", target.String())

	script, err := os.Open(scriptPath)
	if err != nil {
		return "", fmt.Errorf("open SQL file: %w", err)
	}
	defer script.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = script
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), env...)

	start := time.Now()
	log.Debug("running SQL client")
	if err := cmd.Run(); err != nil {
		return "", &ExecutionError{
			Client: bin,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	log.Info("SQL file executed", "duration_ms", time.Since(start).Milliseconds())

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("read SQL file: %w", err)
	}

	name, err := ResolveDatabaseName(string(content), target.Engine)
	if err != nil {
		return "", err
	}
	log.Debug("database name resolved", "database", name)
	return name, nil
}

// command builds argv and extra environment for the engine's client. The
// password only ever travels in the environment, and no shell is involved,
// so nothing user-supplied is interpreted.
func (l *Loader) command(t dbconn.Target) (string, []string, []string) {
	port := strconv.Itoa(t.Port)

	if t.Engine == dbconn.Postgres {
		args := []string{
			"--host", t.Host,
			"--port", port,
			"--username", t.Username,
			"--dbname", l.clients.PsqlDatabase,
			"--no-psqlrc",
			"--quiet",
			"--set", "ON_ERROR_STOP=1",
		}
		return l.clients.Psql, args, []string{"PGPASSWORD=" + t.Password}
	}

	args := []string{
		"--host", t.Host,
		"--port", port,
		"--user", t.Username,
		"--protocol=TCP",
	}
	return l.clients.MySQL, args, []string{"MYSQL_PWD=" + t.Password}
}
