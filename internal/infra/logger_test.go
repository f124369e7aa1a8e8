package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"production", "", zerolog.InfoLevel},
		{"development", "", zerolog.DebugLevel},
		{"production", "WARN", zerolog.WarnLevel},
		{"production", "loud", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		if got := newLogger(&buf, tc.env, tc.level).GetLevel(); got != tc.want {
			t.Fatalf("newLogger(%q, %q) level = %v, want %v", tc.env, tc.level, got, tc.want)
		}
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "")
	logger.Info().Str("job_id", "j1").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["service"] != "uigen" || line["job_id"] != "j1" || line["message"] != "hello" {
		t.Fatalf("unexpected log line %v", line)
	}
}
