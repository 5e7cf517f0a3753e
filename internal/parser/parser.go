// Package parser turns SQL CREATE TABLE text and JSON schema documents into
// a schema.Schema.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/riftdata/schemadiff/internal/schema"
)

// Format selects a parser.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatJSON Format = "json"
)

// FormatFromPath routes files ending in .json (any case) to the JSON parser
// and everything else to the SQL parser.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatSQL
}

// ParseFormat validates a user-supplied format name. An empty name means SQL.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sql":
		return FormatSQL, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown schema format %q (want sql or json)", s)
	}
}

// Parse dispatches text to the parser for format. Only JSON input can fail.
func Parse(format Format, text string) (*schema.Schema, error) {
	if format == FormatJSON {
		return ParseJSON(text)
	}
	return ParseSQL(text), nil
}
