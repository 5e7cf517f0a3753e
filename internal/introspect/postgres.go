package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// pgTypeAliases maps information_schema type names to the spellings used
// in hand-written DDL, so a database compares cleanly against a .sql file.
var pgTypeAliases = map[string]string{
	"character varying":           "VARCHAR",
	"character":                   "CHAR",
	"timestamp without time zone": "TIMESTAMP",
	"timestamp with time zone":    "TIMESTAMPTZ",
	"time without time zone":      "TIME",
	"time with time zone":         "TIMETZ",
}

// Postgres introspects a PostgreSQL schema through information_schema.
type Postgres struct {
	pool   *pgxpool.Pool
	schema string
	opts   Options
}

func openPostgres(ctx context.Context, dsn string, opts Options) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", Redact(dsn), err)
	}

	name := opts.PostgresSchema
	if name == "" {
		name = "public"
	}
	return &Postgres{pool: pool, schema: name, opts: opts}, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool, opts Options) *Postgres {
	name := opts.PostgresSchema
	if name == "" {
		name = "public"
	}
	return &Postgres{pool: pool, schema: name, opts: opts}
}

func (p *Postgres) Dialect() string { return "postgres" }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Introspect reads every base table in the configured schema.
func (p *Postgres) Introspect(ctx context.Context) (*schema.Schema, error) {
	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	var cols []columnRow
	for i, table := range tables {
		tableCols, err := p.introspectTable(ctx, table)
		if err != nil {
			return nil, err
		}
		cols = append(cols, tableCols...)
		if p.opts.Progress != nil {
			p.opts.Progress(i+1, len(tables), table)
		}
	}

	keys, err := p.constraints(ctx)
	if err != nil {
		return nil, err
	}

	logger.Debug("introspected postgres schema", "schema", p.schema, "tables", len(tables), "columns", len(cols))
	return assemble(tables, cols, keys, nil), nil
}

func (p *Postgres) listTables(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT table_name::text
		 FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		p.schema)
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

// introspectTable returns the columns of one table in ordinal order.
func (p *Postgres) introspectTable(ctx context.Context, table string) ([]columnRow, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT c.column_name::text,
		        CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name::text ELSE c.data_type::text END,
		        c.character_maximum_length::int,
		        c.numeric_precision::int,
		        c.numeric_scale::int,
		        c.is_nullable = 'YES',
		        c.column_default::text
		 FROM information_schema.columns c
		 WHERE c.table_schema = $1 AND c.table_name = $2
		 ORDER BY c.ordinal_position`,
		p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("introspect columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var (
			col                 = columnRow{table: table}
			dataType            string
			maxLen, prec, scale *int
		)
		if err := rows.Scan(&col.name, &dataType, &maxLen, &prec, &scale, &col.nullable, &col.def); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.dataType = pgTypeName(dataType, maxLen, prec, scale)
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// constraints returns key columns of every PRIMARY KEY, UNIQUE and FOREIGN
// KEY constraint in the schema. Foreign key target columns are matched by
// position in the referenced key.
func (p *Postgres) constraints(ctx context.Context) ([]keyRow, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT tc.table_name::text, tc.constraint_name::text, tc.constraint_type::text,
		        kcu.column_name::text,
		        COALESCE(rk.table_name::text, ''), COALESCE(rk.column_name::text, '')
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON tc.constraint_name = kcu.constraint_name
		   AND tc.table_schema = kcu.table_schema
		   AND tc.table_name = kcu.table_name
		 LEFT JOIN information_schema.referential_constraints rc
		   ON rc.constraint_name = tc.constraint_name
		   AND rc.constraint_schema = tc.constraint_schema
		 LEFT JOIN information_schema.key_column_usage rk
		   ON rk.constraint_name = rc.unique_constraint_name
		   AND rk.constraint_schema = rc.unique_constraint_schema
		   AND rk.ordinal_position = kcu.position_in_unique_constraint
		 WHERE tc.table_schema = $1
		   AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
		 ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`,
		p.schema)
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

// pgTypeName renders an information_schema type with its length or
// precision, e.g. VARCHAR(255) or NUMERIC(10,2).
func pgTypeName(dataType string, maxLen, prec, scale *int) string {
	name := strings.ToLower(dataType)
	if alias, ok := pgTypeAliases[name]; ok {
		name = alias
	}
	name = strings.ToUpper(name)

	switch {
	case maxLen != nil:
		return name + "(" + strconv.Itoa(*maxLen) + ")"
	case name == "NUMERIC" && prec != nil && scale != nil:
		return name + "(" + strconv.Itoa(*prec) + "," + strconv.Itoa(*scale) + ")"
	case name == "NUMERIC" && prec != nil:
		return name + "(" + strconv.Itoa(*prec) + ")"
	default:
		return name
	}
}
