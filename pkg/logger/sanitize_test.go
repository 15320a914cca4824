package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("uid", "alice", "production").Value.String())
	assert.Equal(t, "alice", RedactedAttr("uid", "alice", "development").Value.String())
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"ip=1.2.3.4", false},
		{"uid=alice&ip=1.2.3.4", true},
		{"UID=alice", true},
		{"token=abc", true},
		{"%zz", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeQueryString(tt.query), "query %q", tt.query)
	}
}

func TestAuditLogger_LogThrottleDecision(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), "production")

	al.LogThrottleDecision(AuditEvent{UID: "alice", IPAddress: "1.2.3.4", Count: 3, RetryAfter: time.Minute})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "bruteforce", entry["audit_type"])
	assert.Equal(t, EventLoginThrottled, entry["event_type"])
	assert.Equal(t, "[REDACTED]", entry["uid"])
	assert.Equal(t, "1.2.3.4", entry["ip_address"])
	assert.Equal(t, float64(3), entry["attempt_count"])
}

func TestAuditLogger_LogAttemptPurge(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), "development")

	al.LogAttemptPurge(AuditEvent{UID: "alice", IPAddress: "1.2.3.4", Actor: "ops"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, EventAttemptsPurged, entry["event_type"])
	assert.Equal(t, "alice", entry["uid"])
	assert.Equal(t, "ops", entry["actor"])
	_, hasCount := entry["attempt_count"]
	assert.False(t, hasCount)
}
