package schema

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3-256 digest of the schema's canonical form.
// Table, column and constraint order do not affect the result.
func Fingerprint(s *Schema) string {
	sum := blake3.Sum256([]byte(Canonical(s)))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 12 hex characters of Fingerprint.
func ShortFingerprint(s *Schema) string {
	return Fingerprint(s)[:12]
}

// Canonical renders the schema as sorted, line-oriented text.
func Canonical(s *Schema) string {
	var b strings.Builder

	tables := s.Tables()
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	for _, t := range tables {
		fmt.Fprintf(&b, "table %s\n", t.Name)

		cols := t.Columns()
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
		for _, c := range cols {
			def := "-"
			if c.Default != nil {
				def = fmt.Sprintf("%q", *c.Default)
			}
			fmt.Fprintf(&b, "  column %s %q null=%t default=%s pk=%t unique=%t\n",
				c.Name, c.Type, c.Nullable, def, c.PrimaryKey, c.Unique)
		}

		cons := make([]string, 0, len(t.Constraints))
		for _, c := range t.Constraints {
			cons = append(cons, fmt.Sprintf("  constraint %q %s name=%q ref=%q\n",
				c.Type.String(), strings.Join(c.Columns, ","), c.Name, c.References))
		}
		sort.Strings(cons)
		for _, c := range cons {
			b.WriteString(c)
		}
	}
	return b.String()
}
