// Package exporter copies every table of a database into an .xlsx workbook,
// one worksheet per table.
//
// Rows are streamed from a single database connection into excelize's
// StreamWriter, which spills sheet data to disk instead of holding rows in
// memory. Writing the finished workbook out still assembles the compressed
// archive in memory, so peak memory grows with the size of the .xlsx. The
// file lands in the caller's tempfile.Store.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
	"github.com/JonMunkholm/sql2xlsx/internal/tempfile"
)

// ErrEmptyDatabase is returned when the database has no tables to export.
var ErrEmptyDatabase = errors.New("no tables found in database")

// ConnectionError reports a failure to open the database connection.
type ConnectionError struct {
	Addr     string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to database %q at %s: %v", e.Database, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Opener opens the one connection an export reads through.
type Opener func(ctx context.Context, target dbconn.Target) (Source, error)

// Exporter writes databases to workbook files.
type Exporter struct {
	store *tempfile.Store
	open  Opener
}

// New returns an Exporter that creates workbooks in store.
func New(store *tempfile.Store) *Exporter {
	return &Exporter{
		store: store,
		open:  Open,
	}
}

// Export writes every table of target.Database to a new workbook file named
// with prefix and returns its path. On error no file is left behind.
func (e *Exporter) Export(ctx context.Context, target dbconn.Target, prefix string) (path string, err error) {
	log := logging.WithFields(ctx, "database", target.Database, "engine", target.Engine)
	start := time.Now()

	src, err := e.open(ctx, target)
	if err != nil {
		return "", &ConnectionError{Addr: target.Addr(), Database: target.Database, Err: err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("closing database connection", "error", cerr)
		}
	}()

	tables, err := src.Tables(ctx)
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return "", ErrEmptyDatabase
	}

	out, err := e.store.Create(prefix, ".xlsx")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			out.Close()
			e.store.Remove(ctx, out.Name())
		}
	}()

	stats, err := writeWorkbook(ctx, out, src, tables)
	if err != nil {
		return "", err
	}
	if err = out.Close(); err != nil {
		return "", fmt.Errorf("close workbook: %w", err)
	}

	log.Info("workbook exported",
		"tables", len(tables),
		"rows", stats.rows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out.Name(), nil
}
