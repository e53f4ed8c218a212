package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestAnonymize(t *testing.T) {
	cases := map[string]string{
		"mail alice@example.com now":         "mail [REDACTED_EMAIL] now",
		"token eyJhbGciOiJIUzI1NiJ9.e30.sig": "token [REDACTED_TOKEN]",
		"lookup user_id=42 failed":           "lookup user_id=[USER_ID] failed",
		"nothing to hide":                    "nothing to hide",
	}
	for in, want := range cases {
		if got := Anonymize(in); got != want {
			t.Errorf("Anonymize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogger_WritesModuleAndError(t *testing.T) {
	SetLevel("info")
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Error("store", "insert failed for user_id=7", errors.New("disk full"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["module"] != "store" {
		t.Errorf("module = %v", entry["module"])
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v", entry["error"])
	}
	if msg, _ := entry["msg"].(string); strings.Contains(msg, "7") {
		t.Errorf("user id leaked into message: %q", msg)
	}
}

func TestSetLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	SetLevel("info")
	l.Debug("test", "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %s", buf.String())
	}

	SetLevel("debug")
	defer SetLevel("info")
	l.Debug("test", "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug entry missing at debug level: %s", buf.String())
	}
}
