package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerEmitsJSON(t *testing.T) {
	logger := NewLogger()
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("part_id", "PS11752778").Info("lookup")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["part_id"] != "PS11752778" {
		t.Errorf("field missing from entry: %v", entry)
	}
	if entry["msg"] != "lookup" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
}

func TestNewLoggerWithService(t *testing.T) {
	logger := NewLoggerWithService("chandler")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if logger.WithField("k", "v") == nil {
		t.Fatal("expected non-nil entry")
	}
}
