package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/harrisonrobin/sonrisas/pkg/config"
	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.Log{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", l.GetLevel())
	}
	l.WithField("resource", "tareas").Debug("listed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["resource"] != "tareas" || entry["msg"] != "listed" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(config.Log{Level: "loud"}, nil); err == nil {
		t.Error("Expected error for invalid level")
	}
	if _, err := New(config.Log{Format: "xml"}, nil); err == nil {
		t.Error("Expected error for invalid format")
	}
}
