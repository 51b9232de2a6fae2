package mqtt

import (
	"encoding/json"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{Name: "secmon00"}

	if got := topics.Command(); got != "secmon00/cmd" {
		t.Errorf("Command() = %q, want %q", got, "secmon00/cmd")
	}
	if got := topics.Status(); got != "secmon00/status" {
		t.Errorf("Status() = %q, want %q", got, "secmon00/status")
	}
}

func TestStatusPayload_IsValidJSON(t *testing.T) {
	for _, tt := range []struct {
		status, reason string
	}{
		{"online", ""},
		{"offline", "graceful_shutdown"},
		{"offline", "unexpected_disconnect"},
	} {
		payload := statusPayload(tt.status, tt.reason)
		var parsed map[string]string
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			t.Fatalf("statusPayload(%q, %q) produced invalid JSON: %v", tt.status, tt.reason, err)
		}
		if parsed["status"] != tt.status {
			t.Errorf("status = %q, want %q", parsed["status"], tt.status)
		}
		if tt.reason != "" && parsed["reason"] != tt.reason {
			t.Errorf("reason = %q, want %q", parsed["reason"], tt.reason)
		}
		if parsed["timestamp"] == "" {
			t.Error("timestamp missing")
		}
	}
}
