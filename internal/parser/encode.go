package parser

import (
	"bytes"
	"encoding/json"

	"github.com/riftdata/schemadiff/internal/schema"
)

type jsonColumnDef struct {
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default,omitempty"`
	PrimaryKey bool    `json:"primaryKey"`
	Unique     bool    `json:"unique"`
	// Untyped marks a column declared without a type, which would otherwise
	// read back as TEXT.
	Untyped bool `json:"untyped,omitempty"`
}

// EncodeJSON writes s as a JSON schema document with the "tables" wrapper.
// Table and column order is kept, so the output parses back to an
// identical schema.
func EncodeJSON(s *schema.Schema) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"tables":{`)
	for i, t := range s.Tables() {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeKey(&b, t.Name); err != nil {
			return nil, err
		}

		b.WriteString(`{"columns":{`)
		for j, c := range t.Columns() {
			if j > 0 {
				b.WriteByte(',')
			}
			if err := writeKey(&b, c.Name); err != nil {
				return nil, err
			}
			def, err := json.Marshal(jsonColumnDef{
				Type:       c.Type,
				Nullable:   c.Nullable,
				Default:    c.Default,
				PrimaryKey: c.PrimaryKey,
				Unique:     c.Unique,
				Untyped:    c.Type == "",
			})
			if err != nil {
				return nil, err
			}
			b.Write(def)
		}

		constraints := t.Constraints
		if constraints == nil {
			constraints = []schema.Constraint{}
		}
		cons, err := json.Marshal(constraints)
		if err != nil {
			return nil, err
		}
		b.WriteString(`},"constraints":`)
		b.Write(cons)
		b.WriteByte('}')
	}
	b.WriteString(`}}`)

	var out bytes.Buffer
	if err := json.Indent(&out, b.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeKey(b *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	b.Write(k)
	b.WriteByte(':')
	return nil
}
