package core

import (
	"io"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
)

// ValidationError is a request the caller has to fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Request is one conversion's input. Credentials live only as long as the
// request and are never written to disk.
type Request struct {
	Script   io.Reader
	Filename string
	Host     string
	Username string
	Password string
	Engine   string
}

// Validate reports the first missing or malformed field as a *ValidationError.
func (r Request) Validate() error {
	if r.Script == nil {
		return &ValidationError{Message: "No SQL file provided"}
	}
	if r.Username == "" || r.Password == "" {
		return &ValidationError{Message: "Username and password are required"}
	}
	engine, err := dbconn.ParseEngine(r.Engine)
	if err != nil {
		return &ValidationError{Message: "Unsupported database engine: " + r.Engine}
	}
	if _, _, err := dbconn.ParseHost(engine, r.Host); err != nil {
		return &ValidationError{Message: "Invalid host: " + r.Host}
	}
	return nil
}

// target builds the connection target. Call only after Validate succeeded.
func (r Request) target() (dbconn.Target, error) {
	engine, err := dbconn.ParseEngine(r.Engine)
	if err != nil {
		return dbconn.Target{}, err
	}
	return dbconn.NewTarget(engine, r.Host, r.Username, r.Password)
}
