package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/riftdata/schemadiff/internal/schema"
)

// ErrMalformedJSON is wrapped by every ParseError.
var ErrMalformedJSON = errors.New("malformed JSON schema")

// ParseError reports a JSON schema document that is not well-formed JSON.
type ParseError struct {
	Offset  int64  // byte offset of the failure, 0 if unknown
	Message string // decoder message
	Err     error  // underlying encoding/json error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s at offset %d", e.Message, e.Offset)
	}
	return e.Message
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedJSON, e.Err}
	}
	return []error{ErrMalformedJSON}
}

func newParseError(err error) *ParseError {
	pe := &ParseError{Message: err.Error(), Err: err}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		pe.Offset = syntax.Offset
	}
	return pe
}

// ParseJSON reads a JSON schema document. Only malformed JSON is an error;
// missing or mistyped fields fall back to defaults.
//
// The root is either {"tables": {...}} or the table map itself. Object key
// order is kept as table and column order.
func ParseJSON(text string) (*schema.Schema, error) {
	var probe any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, newParseError(err)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	root, err := decodeNode(dec)
	if err != nil {
		return nil, newParseError(err)
	}

	s := schema.New()
	tables := root
	if t, ok := root.get("tables"); ok {
		tables = t
	}
	if tables.kind != objectNode {
		return s, nil
	}
	for i, name := range tables.keys {
		s.Put(jsonTable(name, tables.vals[i]))
	}
	return s, nil
}

func jsonTable(name string, def *node) *schema.Table {
	t := schema.NewTable(name)

	if cols, ok := def.get("columns"); ok && cols.kind == objectNode {
		for i, colName := range cols.keys {
			t.PutColumn(jsonColumn(colName, cols.vals[i]))
		}
	}

	if cons, ok := def.get("constraints"); ok && cons.kind == arrayNode {
		for _, c := range cons.vals {
			t.AddConstraint(jsonConstraint(c))
		}
	}
	return t
}

func jsonColumn(name string, def *node) schema.Column {
	col := schema.Column{
		Name:     name,
		Type:     "TEXT",
		Nullable: true,
	}
	if typ := def.stringField("type"); typ != "" {
		col.Type = strings.ToUpper(typ)
	}
	if v, ok := def.get("untyped"); ok && v.scalar == true {
		col.Type = ""
	}
	if v, ok := def.get("nullable"); ok && v.scalar == false {
		col.Nullable = false
	}
	if v, ok := def.get("default"); ok && !v.isNull() {
		text := v.text()
		col.Default = &text
	}
	if v, ok := def.get("primaryKey"); ok && v.scalar == true {
		col.PrimaryKey = true
	}
	if v, ok := def.get("unique"); ok && v.scalar == true {
		col.Unique = true
	}
	return col
}

func jsonConstraint(def *node) schema.Constraint {
	c := schema.Constraint{
		Name:       def.stringField("name"),
		Type:       schema.ParseConstraintType(def.stringField("type")),
		Columns:    []string{},
		References: def.stringField("references"),
	}
	if cols, ok := def.get("columns"); ok && cols.kind == arrayNode {
		for _, v := range cols.vals {
			if s, ok := v.scalar.(string); ok {
				c.Columns = append(c.Columns, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}
	return c
}

type nodeKind int

const (
	scalarNode nodeKind = iota
	objectNode
	arrayNode
)

// node is a decoded JSON value that remembers object key order.
type node struct {
	kind   nodeKind
	keys   []string
	vals   []*node
	scalar any // string, json.Number, bool or nil
}

func decodeNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return &node{kind: scalarNode, scalar: tok}, nil
	}

	switch delim {
	case '{':
		n := &node{kind: objectNode}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeNode(dec)
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, key)
			n.vals = append(n.vals, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return n, nil
	case '[':
		n := &node{kind: arrayNode}
		for dec.More() {
			val, err := decodeNode(dec)
			if err != nil {
				return nil, err
			}
			n.vals = append(n.vals, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// get returns the value of key. Duplicate keys resolve to the last one, as
// encoding/json does.
func (n *node) get(key string) (*node, bool) {
	if n == nil || n.kind != objectNode {
		return nil, false
	}
	for i := len(n.keys) - 1; i >= 0; i-- {
		if n.keys[i] == key {
			return n.vals[i], true
		}
	}
	return nil, false
}

func (n *node) stringField(key string) string {
	v, ok := n.get(key)
	if !ok {
		return ""
	}
	s, _ := v.scalar.(string)
	return s
}

func (n *node) isNull() bool {
	return n.kind == scalarNode && n.scalar == nil
}

// text stringifies a default value: strings as-is, numbers as written,
// containers as compact JSON.
func (n *node) text() string {
	if n.kind == scalarNode {
		switch v := n.scalar.(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			if v {
				return "true"
			}
			return "false"
		}
		return ""
	}
	var b bytes.Buffer
	n.writeCompact(&b)
	return b.String()
}

func (n *node) writeCompact(b *bytes.Buffer) {
	switch n.kind {
	case objectNode:
		b.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			n.vals[i].writeCompact(b)
		}
		b.WriteByte('}')
	case arrayNode:
		b.WriteByte('[')
		for i, v := range n.vals {
			if i > 0 {
				b.WriteByte(',')
			}
			v.writeCompact(b)
		}
		b.WriteByte(']')
	default:
		if num, ok := n.scalar.(json.Number); ok {
			b.WriteString(num.String())
			return
		}
		raw, _ := json.Marshal(n.scalar)
		b.Write(raw)
	}
}
