package exporter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/sql2xlsx/internal/dbconn"
)

// Source is one open database connection.
type Source interface {
	// Tables lists table names in the order the server returns them.
	Tables(ctx context.Context) ([]string, error)

	// Rows runs SELECT * against table.
	Rows(ctx context.Context, table string) (RowIterator, error)

	Close() error
}

// RowIterator is a forward-only result set.
type RowIterator interface {
	Columns() []string
	Next() bool
	Values() ([]any, error)
	Err() error
	Close() error
}

// Open connects to target with the driver for its engine.
func Open(ctx context.Context, target dbconn.Target) (Source, error) {
	switch target.Engine {
	case dbconn.Postgres:
		return openPostgres(ctx, target)
	default:
		return openMySQL(ctx, target)
	}
}

// sqlDialect holds the statements that differ between database/sql drivers.
type sqlDialect struct {
	listTables string
	quote      func(string) string
}

func mysqlDialect(database string) sqlDialect {
	return sqlDialect{
		listTables: "SHOW TABLES FROM " + quoteBacktick(database),
		quote:      quoteBacktick,
	}
}

func quoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func openMySQL(ctx context.Context, target dbconn.Target) (Source, error) {
	connector, err := mysql.NewConnector(target.MySQLConfig())
	if err != nil {
		return nil, err
	}
	return newSQLSource(ctx, sql.OpenDB(connector), mysqlDialect(target.Database))
}

// sqlSource reads through a single pinned *sql.Conn.
type sqlSource struct {
	db      *sql.DB
	conn    *sql.Conn
	dialect sqlDialect
}

// newSQLSource takes ownership of db and pins one connection from it.
func newSQLSource(ctx context.Context, db *sql.DB, dialect sqlDialect) (*sqlSource, error) {
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	return &sqlSource{db: db, conn: conn, dialect: dialect}, nil
}

func (s *sqlSource) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Rows prepares the query so the driver uses its binary protocol and
// returns typed values instead of text.
func (s *sqlSource) Rows(ctx context.Context, table string) (RowIterator, error) {
	stmt, err := s.conn.PrepareContext(ctx, "SELECT * FROM "+s.dialect.quote(table))
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		stmt.Close()
		return nil, err
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		stmt.Close()
		return nil, err
	}

	return &sqlRows{stmt: stmt, rows: rows, cols: cols}, nil
}

func (s *sqlSource) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

type sqlRows struct {
	stmt *sql.Stmt
	rows *sql.Rows
	cols []string
}

func (r *sqlRows) Columns() []string { return r.cols }
func (r *sqlRows) Next() bool        { return r.rows.Next() }
func (r *sqlRows) Err() error        { return r.rows.Err() }

func (r *sqlRows) Values() ([]any, error) {
	values := make([]any, len(r.cols))
	dest := make([]any, len(r.cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return values, nil
}

func (r *sqlRows) Close() error {
	return errors.Join(r.rows.Close(), r.stmt.Close())
}
