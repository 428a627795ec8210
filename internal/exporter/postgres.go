package exporter

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
)

const listPostgresTables = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema()
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

type pgSource struct {
	conn *pgx.Conn
}

func openPostgres(ctx context.Context, target dbconn.Target) (Source, error) {
	cfg, err := target.PgxConfig()
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgSource{conn: conn}, nil
}

func (s *pgSource) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, listPostgresTables)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *pgSource) Rows(ctx context.Context, table string) (RowIterator, error) {
	rows, err := s.conn.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, err
	}

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return &pgRows{rows: rows, cols: cols}, nil
}

func (s *pgSource) Close() error {
	// Close is bounded by the server round trip; the request context may
	// already be gone at this point.
	return s.conn.Close(context.Background())
}

type pgRows struct {
	rows pgx.Rows
	cols []string
}

func (r *pgRows) Columns() []string      { return r.cols }
func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Values() ([]any, error) { return r.rows.Values() }
func (r *pgRows) Err() error             { return r.rows.Err() }

func (r *pgRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}
