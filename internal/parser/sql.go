package parser

import (
	"strings"

	"github.com/riftdata/schemadiff/internal/schema"
)

// StatementKind classifies a top-level SQL statement.
type StatementKind int

const (
	StmtUnknown StatementKind = iota
	StmtCreateTable
	StmtAlterTable
	StmtDropTable
	StmtCreateIndex
	StmtDropIndex
	StmtOtherDDL // views, functions, triggers, sequences, types
	StmtData     // SELECT, INSERT, UPDATE, DELETE, COPY
)

func (k StatementKind) String() string {
	switch k {
	case StmtCreateTable:
		return "CREATE TABLE"
	case StmtAlterTable:
		return "ALTER TABLE"
	case StmtDropTable:
		return "DROP TABLE"
	case StmtCreateIndex:
		return "CREATE INDEX"
	case StmtDropIndex:
		return "DROP INDEX"
	case StmtOtherDDL:
		return "DDL"
	case StmtData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

func (k StatementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Skipped is a part of a CREATE TABLE statement that produced nothing.
type Skipped struct {
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
	Line   int    `json:"line" yaml:"line"`
	Clause string `json:"clause" yaml:"clause"`
	Reason string `json:"reason" yaml:"reason"`
}

// Statement is a statement the parser saw but does not model.
type Statement struct {
	Kind StatementKind `json:"kind" yaml:"kind"`
	Line int           `json:"line" yaml:"line"`
}

// Report describes what ParseSQLReport did with its input.
type Report struct {
	Tables  []string    `json:"tables" yaml:"tables"`
	Skipped []Skipped   `json:"skipped" yaml:"skipped"`
	Ignored []Statement `json:"ignored" yaml:"ignored"`
}

// Lossless reports whether every CREATE TABLE clause was understood.
func (r *Report) Lossless() bool {
	return len(r.Skipped) == 0
}

// IgnoredCounts groups ignored statements by kind.
func (r *Report) IgnoredCounts() map[StatementKind]int {
	counts := make(map[StatementKind]int)
	for _, s := range r.Ignored {
		counts[s.Kind]++
	}
	return counts
}

// ParseSQL extracts every CREATE TABLE statement from text. It never fails:
// anything it cannot interpret is skipped.
func ParseSQL(text string) *schema.Schema {
	s, _ := ParseSQLReport(text)
	return s
}

// ParseSQLReport is ParseSQL plus a report of the parts that were skipped.
func ParseSQLReport(text string) (*schema.Schema, *Report) {
	p := &sqlParser{
		toks:   tokenize(text),
		schema: schema.New(),
		report: &Report{Tables: []string{}, Skipped: []Skipped{}, Ignored: []Statement{}},
	}
	p.run()
	return p.schema, p.report
}

// columnModifiers end the type of a column definition.
var columnModifiers = []string{
	"PRIMARY", "NOT", "NULL", "DEFAULT", "UNIQUE", "REFERENCES", "CHECK",
	"CONSTRAINT", "COLLATE", "GENERATED", "AUTO_INCREMENT", "AUTOINCREMENT",
	"IDENTITY", "COMMENT", "ON", "AS",
}

type sqlParser struct {
	toks   []token
	pos    int
	schema *schema.Schema
	report *Report
}

func (p *sqlParser) run() {
	start := true
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		if tok.isPunct(";") {
			start = true
			p.pos++
			continue
		}

		kind := classifyStatement(p.toks[p.pos:])
		if kind == StmtCreateTable {
			start = p.createTable()
			continue
		}
		if start && kind != StmtUnknown {
			p.report.Ignored = append(p.report.Ignored, Statement{Kind: kind, Line: tok.line})
		}
		start = false
		p.pos++
	}
}

func classifyStatement(toks []token) StatementKind {
	if len(toks) == 0 {
		return StmtUnknown
	}
	first := toks[0]
	switch {
	case first.isKeyword("CREATE"):
		i := 1
		for i < len(toks) && toks[i].isKeyword("OR", "REPLACE", "TEMP", "TEMPORARY", "UNLOGGED", "GLOBAL", "LOCAL", "UNIQUE") {
			i++
		}
		switch {
		case i >= len(toks):
			return StmtUnknown
		case toks[i].isKeyword("TABLE"):
			return StmtCreateTable
		case toks[i].isKeyword("INDEX"):
			return StmtCreateIndex
		default:
			return StmtOtherDDL
		}
	case first.isKeyword("ALTER"):
		if keywordsAt(toks, 1, "TABLE") {
			return StmtAlterTable
		}
		return StmtOtherDDL
	case first.isKeyword("DROP"):
		switch {
		case keywordsAt(toks, 1, "TABLE"):
			return StmtDropTable
		case keywordsAt(toks, 1, "INDEX"):
			return StmtDropIndex
		default:
			return StmtOtherDDL
		}
	case first.isKeyword("COMMENT", "GRANT", "REVOKE", "TRUNCATE"):
		return StmtOtherDDL
	case first.isKeyword("SELECT", "INSERT", "UPDATE", "DELETE", "COPY", "WITH", "MERGE", "REPLACE"):
		return StmtData
	default:
		return StmtUnknown
	}
}

// createTable parses the statement at p.pos, which classifyStatement
// identified as CREATE TABLE. It returns true when the parser is left at a
// statement boundary.
func (p *sqlParser) createTable() bool {
	line := p.toks[p.pos].line
	i := p.pos + 1
	for i < len(p.toks) && !p.toks[i].isKeyword("TABLE") {
		i++
	}
	i++
	if keywordsAt(p.toks, i, "IF", "NOT", "EXISTS") {
		i += 3
	}

	name, next, ok := qualifiedName(p.toks, i)
	if !ok {
		p.skip("", line, p.toks[p.pos:min(i+1, len(p.toks))], "missing table name")
		p.pos = i
		return false
	}
	i = next

	if i >= len(p.toks) || !p.toks[i].isPunct("(") {
		p.skip(name, line, p.toks[p.pos:i], "no column list")
		p.pos = i
		return false
	}
	end := matchParen(p.toks, i)
	if end < 0 {
		p.skip(name, line, p.toks[p.pos:i+1], "unterminated column list")
		p.pos = len(p.toks)
		return false
	}

	table := schema.NewTable(name)
	for _, clause := range splitTopLevel(p.toks[i+1 : end]) {
		p.clause(table, clause)
	}
	p.schema.Put(table)
	p.report.Tables = append(p.report.Tables, table.Name)

	// Table options (ENGINE=..., WITH (...), STRICT) run to the next ';'.
	p.pos = end + 1
	for p.pos < len(p.toks) && !p.toks[p.pos].isPunct(";") {
		if p.toks[p.pos].isKeyword("CREATE") {
			return true
		}
		p.pos++
	}
	return true
}

func (p *sqlParser) clause(table *schema.Table, c []token) {
	switch {
	case c[0].isKeyword("CONSTRAINT"):
		if len(c) < 3 || !c[1].isIdentifier() {
			p.skip(table.Name, c[0].line, c, "unnamed CONSTRAINT clause")
			return
		}
		p.constraint(table, c[1].identValue(), c[2:], c)
	case keywordsAt(c, 0, "PRIMARY", "KEY"),
		keywordsAt(c, 0, "FOREIGN", "KEY"),
		c[0].isKeyword("UNIQUE", "CHECK"):
		p.constraint(table, "", c, c)
	case isIndexClause(c):
	case c[0].isKeyword("LIKE"):
		p.skip(table.Name, c[0].line, c, "LIKE clause is not expanded")
	default:
		p.column(table, c)
	}
}

func (p *sqlParser) constraint(table *schema.Table, name string, c, whole []token) {
	switch {
	case keywordsAt(c, 0, "PRIMARY", "KEY"):
		cols, _, _, ok := parenList(c, 2)
		if !ok {
			p.skip(table.Name, whole[0].line, whole, "PRIMARY KEY without column list")
			return
		}
		if name == "" {
			name = "pk_" + table.Name
		}
		table.AddConstraint(schema.Constraint{Name: name, Type: schema.PrimaryKey, Columns: cols})

	case c[0].isKeyword("UNIQUE"):
		i := 1
		if i < len(c) && c[i].isKeyword("KEY", "INDEX") {
			i++
		}
		if i < len(c) && c[i].isIdentifier() {
			i++
		}
		cols, raw, _, ok := parenList(c, i)
		if !ok {
			p.skip(table.Name, whole[0].line, whole, "UNIQUE without column list")
			return
		}
		if name == "" {
			name = "uq_" + table.Name + "_" + raw
		}
		table.AddConstraint(schema.Constraint{Name: name, Type: schema.Unique, Columns: cols})

	case keywordsAt(c, 0, "FOREIGN", "KEY"):
		cols, _, next, ok := parenList(c, 2)
		if !ok || !keywordsAt(c, next, "REFERENCES") {
			p.skip(table.Name, whole[0].line, whole, "FOREIGN KEY without REFERENCES")
			return
		}
		refTable, after, ok := qualifiedName(c, next+1)
		if !ok {
			p.skip(table.Name, whole[0].line, whole, "FOREIGN KEY without target table")
			return
		}
		refs := refTable
		if refCols, _, _, ok := parenList(c, after); ok {
			refs += "(" + strings.Join(refCols, ",") + ")"
		}
		// Foreign keys are always named after their columns, even when the
		// clause declares a name.
		table.AddConstraint(schema.Constraint{
			Name:       "fk_" + table.Name + "_" + strings.Join(cols, "_"),
			Type:       schema.ForeignKey,
			Columns:    cols,
			References: refs,
		})

	case c[0].isKeyword("CHECK"):

	default:
		p.skip(table.Name, whole[0].line, whole, "unrecognised constraint")
	}
}

func (p *sqlParser) column(table *schema.Table, c []token) {
	if !c[0].isIdentifier() {
		p.skip(table.Name, c[0].line, c, "not a column definition")
		return
	}
	col := schema.Column{Name: c[0].identValue()}

	i, depth := 1, 0
	for ; i < len(c); i++ {
		t := c[i]
		if depth == 0 && t.isKeyword(columnModifiers...) {
			break
		}
		if t.isPunct("(") {
			depth++
		} else if t.isPunct(")") {
			depth--
		}
	}
	col.Type = strings.ToUpper(renderType(c[1:i]))

	notNull := false
	depth = 0
	for j := i; j < len(c); j++ {
		t := c[j]
		switch {
		case t.isPunct("("):
			depth++
		case t.isPunct(")"):
			depth--
		case depth != 0:
		case t.isKeyword("PRIMARY") && keywordsAt(c, j+1, "KEY"):
			col.PrimaryKey = true
		case t.isKeyword("UNIQUE"):
			col.Unique = true
		case t.isKeyword("NOT") && keywordsAt(c, j+1, "NULL"):
			notNull = true
		case t.isKeyword("DEFAULT") && j+1 < len(c):
			end := j + 2
			for end < len(c) && !c[end].spaceBefore {
				end++
			}
			def := joinTokens(c[j+1:end], false)
			col.Default = &def
			for _, d := range c[j+1 : end] {
				if d.isPunct("(") {
					depth++
				} else if d.isPunct(")") {
					depth--
				}
			}
			j = end - 1
		}
	}
	col.Nullable = !notNull && !col.PrimaryKey

	table.PutColumn(col)
}

func (p *sqlParser) skip(table string, line int, toks []token, reason string) {
	p.report.Skipped = append(p.report.Skipped, Skipped{
		Table:  table,
		Line:   line,
		Clause: joinTokens(toks, true),
		Reason: reason,
	})
}

// isIndexClause matches inline index definitions such as MySQL's
// "KEY idx_name (col)" while leaving a column named "key" alone.
func isIndexClause(c []token) bool {
	switch {
	case c[0].isKeyword("INDEX", "FULLTEXT", "SPATIAL", "EXCLUDE"):
		return true
	case c[0].isKeyword("KEY"):
		if len(c) < 2 {
			return false
		}
		if c[1].isPunct("(") {
			return true
		}
		if len(c) > 3 && c[1].isIdentifier() && c[2].isPunct("(") {
			return c[3].kind != tokNumber
		}
		return len(c) > 2 && c[1].isIdentifier() && c[2].isKeyword("USING")
	}
	return false
}

func keywordsAt(toks []token, i int, words ...string) bool {
	if i < 0 || i+len(words) > len(toks) {
		return false
	}
	for j, w := range words {
		if !toks[i+j].isKeyword(w) {
			return false
		}
	}
	return true
}

// qualifiedName reads name or schema.name starting at i and returns the last
// segment plus the index after it.
func qualifiedName(toks []token, i int) (string, int, bool) {
	if i >= len(toks) || !toks[i].isIdentifier() {
		return "", i, false
	}
	name := toks[i].identValue()
	i++
	for i+1 < len(toks) && toks[i].isPunct(".") && toks[i+1].isIdentifier() {
		name = toks[i+1].identValue()
		i += 2
	}
	return name, i, true
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].isPunct("("):
			depth++
		case toks[i].isPunct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits toks on commas outside parentheses. Empty parts are
// dropped.
func splitTopLevel(toks []token) [][]token {
	var (
		parts [][]token
		depth int
		start int
	)
	for i, t := range toks {
		switch {
		case t.isPunct("("):
			depth++
		case t.isPunct(")"):
			depth--
		case t.isPunct(",") && depth == 0:
			if i > start {
				parts = append(parts, toks[start:i])
			}
			start = i + 1
		}
	}
	if start < len(toks) {
		parts = append(parts, toks[start:])
	}
	return parts
}

// parenList reads a parenthesised column list at i. It returns the
// normalised column names, the raw list text without whitespace and the
// index after the closing parenthesis.
func parenList(toks []token, i int) ([]string, string, int, bool) {
	if i >= len(toks) || !toks[i].isPunct("(") {
		return nil, "", i, false
	}
	end := matchParen(toks, i)
	if end < 0 {
		return nil, "", i, false
	}
	inner := toks[i+1 : end]
	cols := make([]string, 0, 2)
	for _, part := range splitTopLevel(inner) {
		// "col DESC" and MySQL prefix lengths "col(10)" name a single column.
		if part[0].isIdentifier() {
			cols = append(cols, part[0].identValue())
		}
	}
	return cols, joinTokens(inner, false), end + 1, len(cols) > 0
}

// renderType joins type tokens with single spaces between words and no
// space around parentheses or commas.
func renderType(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.spaceBefore {
			prev := toks[i-1]
			if !prev.isPunct("(") && !prev.isPunct(",") &&
				!t.isPunct("(") && !t.isPunct(")") && !t.isPunct(",") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func joinTokens(toks []token, spaced bool) string {
	var b strings.Builder
	for i, t := range toks {
		if spaced && i > 0 && t.spaceBefore {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}
