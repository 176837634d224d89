package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewEventIDIsMonotonic(t *testing.T) {
	now := time.Now()
	prev := NewEventID(now)
	for i := 0; i < 100; i++ {
		next := NewEventID(now)
		if next <= prev {
			t.Fatalf("id %s not greater than %s", next, prev)
		}
		prev = next
	}
}

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := t.TempDir()
	ev := NewLabEvent(LabLaunched, "as-1", "lab-1", "user-1", "active")
	ev.InstanceID = "i-0abc"
	body, _ := json.Marshal(ev)

	for i := 0; i < 2; i++ {
		if err := handleMessage(dir, body); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, want := range []string{"lab.launched", "assignment_id=as-1", "instance_id=i-0abc", "event_id=" + ev.ID} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q lacks %q", lines[0], want)
		}
	}
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	for _, body := range []string{"{", `{"id":"x"}`} {
		if err := handleMessage(dir, []byte(body)); err == nil {
			t.Errorf("body %s accepted", body)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ActivityLogFile)); !os.IsNotExist(err) {
		t.Fatalf("log file written for malformed input: %v", err)
	}
}
