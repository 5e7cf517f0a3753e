package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// SQLite introspects a SQLite file. SQLite keeps the original CREATE TABLE
// text in sqlite_master, so tables go through the SQL parser.
type SQLite struct {
	db   *sql.DB
	path string
	opts Options
}

func openSQLite(path string, opts Options) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite reference has no path")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn = "file:" + dsn + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLite{db: db, path: path, opts: opts}, nil
}

func (s *SQLite) Dialect() string { return "sqlite" }

func (s *SQLite) Close() error { return s.db.Close() }

// Introspect parses the stored definition of every user table.
func (s *SQLite) Introspect(ctx context.Context) (*schema.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, sql
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read sqlite_master: %w", err)
	}
	defer rows.Close()

	type def struct{ name, sql string }
	var defs []def
	for rows.Next() {
		var d def
		if err := rows.Scan(&d.name, &d.sql); err != nil {
			return nil, fmt.Errorf("scan sqlite_master: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := schema.New()
	for i, d := range defs {
		parsed, report := parser.ParseSQLReport(d.sql)
		for _, sk := range report.Skipped {
			logger.Warn("skipped part of sqlite table", "table", d.name, "clause", sk.Clause, "reason", sk.Reason)
		}
		for _, t := range parsed.Tables() {
			out.Put(t)
		}
		if s.opts.Progress != nil {
			s.opts.Progress(i+1, len(defs), d.name)
		}
	}

	logger.Debug("introspected sqlite schema", "path", s.path, "tables", out.Len())
	return out, nil
}
