package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestFormatterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(os.Stderr)
		SetFormatter("text")
		SetLevel("info")
	}()

	SetFormatter("json")
	SetLevel("warn")

	Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	Warn("shown", "table", "users")
	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("json output %q: %v", line, err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("msg = %v, want %q", entry["msg"], "shown")
	}
	if entry["table"] != "users" {
		t.Errorf("table = %v, want %q", entry["table"], "users")
	}
}

func TestSetLevelIgnoresUnknown(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel("error")
	SetLevel("verbose")
	Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("unknown level should leave error level in place, got %q", buf.String())
	}
	SetLevel("info")
}

func TestWithCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(os.Stderr)
		SetFormatter("text")
	}()
	SetFormatter("json")

	With("source", "postgres://db/shop").Info("introspected database", "tables", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if entry["source"] != "postgres://db/shop" {
		t.Errorf("source = %v, want %q", entry["source"], "postgres://db/shop")
	}
	if entry["msg"] != "introspected database" {
		t.Errorf("msg = %v, want %q", entry["msg"], "introspected database")
	}
}
