package schema

import (
	"encoding/json"
	"strings"
)

// ConstraintKind classifies a constraint type.
type ConstraintKind int

const (
	KindOther ConstraintKind = iota
	KindPrimaryKey
	KindUnique
	KindForeignKey
)

func (k ConstraintKind) String() string {
	switch k {
	case KindPrimaryKey:
		return "PRIMARY KEY"
	case KindUnique:
		return "UNIQUE"
	case KindForeignKey:
		return "FOREIGN KEY"
	default:
		return "OTHER"
	}
}

// ConstraintType is one of the recognised kinds, or an arbitrary
// pass-through string (KindOther) as found in JSON input.
type ConstraintType struct {
	kind ConstraintKind
	raw  string
}

var (
	PrimaryKey = ConstraintType{kind: KindPrimaryKey}
	Unique     = ConstraintType{kind: KindUnique}
	ForeignKey = ConstraintType{kind: KindForeignKey}
)

// OtherConstraint wraps an unrecognised constraint type verbatim.
func OtherConstraint(raw string) ConstraintType {
	return ConstraintType{kind: KindOther, raw: raw}
}

// ParseConstraintType maps "PRIMARY KEY", "UNIQUE" and "FOREIGN KEY"
// (case-insensitive, any inner whitespace) to their kinds. Anything else is
// kept as KindOther.
func ParseConstraintType(s string) ConstraintType {
	switch strings.ToUpper(strings.Join(strings.Fields(s), " ")) {
	case "PRIMARY KEY":
		return PrimaryKey
	case "UNIQUE":
		return Unique
	case "FOREIGN KEY":
		return ForeignKey
	default:
		return OtherConstraint(s)
	}
}

// Kind returns the constraint kind.
func (t ConstraintType) Kind() ConstraintKind {
	return t.kind
}

func (t ConstraintType) String() string {
	if t.kind == KindOther {
		return t.raw
	}
	return t.kind.String()
}

func (t ConstraintType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ConstraintType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseConstraintType(s)
	return nil
}

func (t ConstraintType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}
