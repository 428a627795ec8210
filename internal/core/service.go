package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
	"github.com/JonMunkholm/sql2xlsx/internal/tempfile"
)

// WorkbookExtension is the extension of every exported file.
const WorkbookExtension = "xlsx"

// WorkbookContentType is the MIME type of an .xlsx workbook.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScriptLoader runs a staged SQL script and names the database it set up.
type ScriptLoader interface {
	Load(ctx context.Context, target dbconn.Target, scriptPath string) (string, error)
}

// WorkbookExporter writes a database to a workbook file and returns its path.
type WorkbookExporter interface {
	Export(ctx context.Context, target dbconn.Target, prefix string) (string, error)
}

// Service converts SQL dumps into workbooks.
type Service struct {
	store    *tempfile.Store
	loader   ScriptLoader
	exporter WorkbookExporter
}

// NewService wires the pipeline stages together.
func NewService(store *tempfile.Store, loader ScriptLoader, exporter WorkbookExporter) *Service {
	return &Service{
		store:    store,
		loader:   loader,
		exporter: exporter,
	}
}

// Conversion is a finished conversion whose files are still on disk.
type Conversion struct {
	ID           string
	Database     string
	ScriptPath   string
	WorkbookPath string

	store *tempfile.Store
}

// Filename is the download name of the workbook.
func (c *Conversion) Filename() string {
	return fmt.Sprintf("%s_export.%s", c.Database, WorkbookExtension)
}

// Close removes both temp files. It is safe to call more than once.
func (c *Conversion) Close(ctx context.Context) {
	c.store.Remove(ctx, c.ScriptPath)
	c.store.Remove(ctx, c.WorkbookPath)
}

// Convert stages, loads and exports req. The stages are not cancellable:
// ctx is detached from cancellation and only carries request values.
func (s *Service) Convert(ctx context.Context, req Request) (*Conversion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	target, err := req.target()
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	ctx = context.WithoutCancel(ctx)
	conv := &Conversion{ID: uuid.NewString(), store: s.store}
	log := logging.WithFields(ctx, "conversion_id", conv.ID, "target", target.String())
	start := time.Now()

	fail := func(stage string, err error) (*Conversion, error) {
		log.Error("conversion failed", "stage", stage, "error", err)
		conv.Close(ctx)
		return nil, err
	}

	prefix := "sql2xlsx-" + conv.ID + "-"

	conv.ScriptPath, err = s.stage(ctx, prefix, req.Script)
	if err != nil {
		return fail("staging", err)
	}

	conv.Database, err = s.loader.Load(ctx, target, conv.ScriptPath)
	if err != nil {
		return fail("loading", err)
	}
	log = log.With("database", conv.Database)

	conv.WorkbookPath, err = s.exporter.Export(ctx, target.WithDatabase(conv.Database), prefix)
	if err != nil {
		return fail("exporting", err)
	}

	log.Info("conversion complete", "duration_ms", time.Since(start).Milliseconds())
	return conv, nil
}

// stage copies the uploaded script into a new temp file and returns its path.
func (s *Service) stage(ctx context.Context, prefix string, script io.Reader) (string, error) {
	f, err := s.store.Create(prefix, ".sql")
	if err != nil {
		return "", err
	}

	plain, kind, release, err := decompress(script)
	counter := &countingReader{}
	if err == nil {
		counter.reader = skipBOM(plain)
		_, err = io.Copy(f, counter)
		release()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.store.Remove(ctx, f.Name())
		return "", fmt.Errorf("stage SQL file: %w", err)
	}

	logging.FromContext(ctx).Debug("SQL file staged",
		"path", f.Name(), "compression", kind, "bytes", counter.n)
	return f.Name(), nil
}
