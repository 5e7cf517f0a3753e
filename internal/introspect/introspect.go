// Package introspect reads table definitions from a live database into a
// schema.Schema.
package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/riftdata/schemadiff/internal/schema"
)

// Introspector reads the current schema of a database.
type Introspector interface {
	Dialect() string
	Introspect(ctx context.Context) (*schema.Schema, error)
	Close() error
}

// ProgressFunc is called after each table is assembled.
type ProgressFunc func(done, total int, table string)

// Options tune an introspector.
type Options struct {
	// PostgresSchema is the PostgreSQL schema to read, "public" when empty.
	// MySQL always reads the database named in its DSN.
	PostgresSchema string
	Progress       ProgressFunc
}

// IsDSN reports whether ref names a database rather than a file.
func IsDSN(ref string) bool {
	_, _, ok := splitScheme(ref)
	return ok
}

// Open connects to the database named by dsn. Supported forms are
// postgres://..., postgresql://..., mysql://<dsn or url> and sqlite://<path>.
func Open(ctx context.Context, dsn string, opts Options) (Introspector, error) {
	dialect, rest, ok := splitScheme(dsn)
	if !ok {
		return nil, fmt.Errorf("unsupported database reference %q", Redact(dsn))
	}
	switch dialect {
	case "postgres":
		return openPostgres(ctx, dsn, opts)
	case "mysql":
		return openMySQL(rest, opts)
	case "sqlite":
		return openSQLite(rest, opts)
	default:
		return nil, fmt.Errorf("unsupported dialect %s", dialect)
	}
}

func splitScheme(ref string) (dialect, rest string, ok bool) {
	scheme, rest, found := strings.Cut(ref, "://")
	if !found {
		return "", "", false
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgres", rest, true
	case "mysql":
		return "mysql", rest, true
	case "sqlite", "sqlite3":
		return "sqlite", rest, true
	default:
		return "", "", false
	}
}

// Redact hides the password in a DSN for messages and logs.
func Redact(dsn string) string {
	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	userinfo := rest[:at]
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		userinfo = user + ":****"
	}
	return scheme + "://" + userinfo + rest[at:]
}

// columnRow is one row of information_schema.columns, already formatted.
type columnRow struct {
	table    string
	name     string
	dataType string
	nullable bool
	def      *string
}

// keyRow is one column of a PRIMARY KEY, UNIQUE or FOREIGN KEY constraint.
type keyRow struct {
	table     string
	name      string
	kind      string
	column    string
	refTable  string
	refColumn string
}

// assemble builds a schema from catalog rows. Single-column PRIMARY KEY and
// UNIQUE constraints become column flags, the way they are usually declared
// inline in DDL; everything else becomes a table constraint.
func assemble(tables []string, cols []columnRow, keys []keyRow, progress ProgressFunc) *schema.Schema {
	s := schema.New()
	byName := make(map[string]*schema.Table, len(tables))
	for _, name := range tables {
		t := schema.NewTable(name)
		byName[t.Name] = t
		s.Put(t)
	}

	for _, c := range cols {
		t, ok := byName[strings.ToLower(c.table)]
		if !ok {
			continue
		}
		t.PutColumn(schema.Column{
			Name:     c.name,
			Type:     strings.ToUpper(c.dataType),
			Nullable: c.nullable,
			Default:  c.def,
		})
	}

	type group struct {
		table   string
		name    string
		kind    schema.ConstraintType
		cols    []string
		refTbl  string
		refCols []string
	}
	var (
		order  []string
		groups = make(map[string]*group)
	)
	for _, k := range keys {
		id := strings.ToLower(k.table) + "\x00" + k.name
		g, ok := groups[id]
		if !ok {
			g = &group{
				table:  strings.ToLower(k.table),
				name:   strings.ToLower(k.name),
				kind:   schema.ParseConstraintType(k.kind),
				refTbl: strings.ToLower(k.refTable),
			}
			groups[id] = g
			order = append(order, id)
		}
		g.cols = append(g.cols, strings.ToLower(k.column))
		if k.refColumn != "" {
			g.refCols = append(g.refCols, strings.ToLower(k.refColumn))
		}
	}

	for _, id := range order {
		g := groups[id]
		t, ok := byName[g.table]
		if !ok {
			continue
		}
		kind := g.kind.Kind()
		if len(g.cols) == 1 && (kind == schema.KindPrimaryKey || kind == schema.KindUnique) {
			if col, ok := t.Column(g.cols[0]); ok {
				if kind == schema.KindPrimaryKey {
					col.PrimaryKey = true
					col.Nullable = false
				} else {
					col.Unique = true
				}
				t.PutColumn(col)
				continue
			}
		}
		c := schema.Constraint{Name: g.name, Type: g.kind, Columns: g.cols}
		if kind == schema.KindForeignKey {
			c.References = g.refTbl
			if len(g.refCols) > 0 {
				c.References += "(" + strings.Join(g.refCols, ",") + ")"
			}
		}
		t.AddConstraint(c)
	}

	if progress != nil {
		for i, t := range s.Tables() {
			progress(i+1, s.Len(), t.Name)
		}
	}
	return s
}
