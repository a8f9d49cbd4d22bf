package infra

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "api")
	logger.Debug().Msg("hidden")
	logger.Info().Str("campaign", "7").Msg("created")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["service"] != "api" || line["env"] != "production" || line["campaign"] != "7" {
		t.Fatalf("unexpected fields: %#v", line)
	}
	if line["message"] != "created" {
		t.Fatalf("message = %v, want created", line["message"])
	}
}

func TestNewLoggerDevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "development", "api")
	logger.Debug().Msg("visible")
	if !bytes.Contains(buf.Bytes(), []byte("visible")) {
		t.Fatalf("debug line missing from %q", buf.String())
	}
}
