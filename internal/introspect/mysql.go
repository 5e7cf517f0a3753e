package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// MySQL introspects a MySQL or MariaDB database through information_schema.
type MySQL struct {
	db       *sql.DB
	database string
	opts     Options
}

// mysqlConfig accepts either a driver DSN (user:pass@tcp(host:3306)/db) or
// URL form (user:pass@host:3306/db?param=value).
func mysqlConfig(ref string) (*mysql.Config, error) {
	host := ref
	if at := strings.LastIndex(ref, "@"); at >= 0 {
		host = ref[at+1:]
	}
	if strings.Contains(ref, "(") || host == "" || strings.HasPrefix(host, "/") {
		cfg, err := mysql.ParseDSN(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return cfg, nil
	}

	u, err := url.Parse("mysql://" + ref)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql url: %w", err)
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg, nil
}

func openMySQL(ref string, opts Options) (*MySQL, error) {
	cfg, err := mysqlConfig(ref)
	if err != nil {
		return nil, err
	}
	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxOpenConns(2)

	return &MySQL{db: db, database: cfg.DBName, opts: opts}, nil
}

func (m *MySQL) Dialect() string { return "mysql" }

func (m *MySQL) Close() error { return m.db.Close() }

// Introspect reads every base table of the database.
func (m *MySQL) Introspect(ctx context.Context) (*schema.Schema, error) {
	if m.database == "" {
		if err := m.db.QueryRowContext(ctx, `SELECT DATABASE()`).Scan(&m.database); err != nil {
			return nil, fmt.Errorf("current database: %w", err)
		}
	}

	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := m.columns(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := m.constraints(ctx)
	if err != nil {
		return nil, err
	}

	logger.Debug("introspected mysql schema", "database", m.database, "tables", len(tables), "columns", len(cols))
	return assemble(tables, cols, keys, m.opts.Progress), nil
}

func (m *MySQL) listTables(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`, m.database)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (m *MySQL) columns(ctx context.Context) ([]columnRow, error) {
	rows, err := m.db.QueryContext(ctx, `
SELECT table_name, column_name, column_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = ?
ORDER BY table_name, ordinal_position`, m.database)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var (
			col      columnRow
			nullable string
			def      sql.NullString
		)
		if err := rows.Scan(&col.table, &col.name, &col.dataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.nullable = strings.EqualFold(nullable, "YES")
		if def.Valid {
			v := def.String
			col.def = &v
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (m *MySQL) constraints(ctx context.Context) ([]keyRow, error) {
	rows, err := m.db.QueryContext(ctx, `
SELECT tc.table_name, tc.constraint_name, tc.constraint_type, kcu.column_name,
       COALESCE(kcu.referenced_table_name, ''), COALESCE(kcu.referenced_column_name, '')
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
  AND tc.table_schema = kcu.table_schema
  AND tc.table_name = kcu.table_name
WHERE tc.table_schema = ?
  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`, m.database)
	if err != nil {
		return nil, fmt.Errorf("introspect constraints: %w", err)
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var k keyRow
		if err := rows.Scan(&k.table, &k.name, &k.kind, &k.column, &k.refTable, &k.refColumn); err != nil {
			return nil, fmt.Errorf("scan constraint: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
