package audit

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecorderNormalizesEntries(t *testing.T) {
	var rec Recorder
	meta := []byte(`{"wagons":3}`)
	if err := rec.Log(context.Background(), Entry{Action: ActionRunSimulation, Metadata: meta}); err != nil {
		t.Fatalf("log: %v", err)
	}
	entries := rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries=%d", len(entries))
	}
	got := entries[0]
	if !strings.HasPrefix(got.ID, "audit-") {
		t.Fatalf("id=%q", got.ID)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
	if got.PayloadDigest != DigestJSON(meta) || len(got.PayloadDigest) != 64 {
		t.Fatalf("digest=%q", got.PayloadDigest)
	}
}

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLogWriter(log.New(&buf, "", 0))
	if err := w.Log(context.Background(), Entry{Actor: "user-1", Action: ActionReadFailures, ResourceType: "run", ResourceID: "r1"}); err != nil {
		t.Fatalf("log: %v", err)
	}
	line := buf.String()
	for _, want := range []string{"event=audit", "actor=user-1", "action=simulation.read_failures", "resource=run/r1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
	if DigestJSON(nil) != "" {
		t.Fatalf("expected empty digest for empty payload")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Fatalf("remote addr ip=%q", got)
	}
	req.Header.Set("X-Real-IP", " 10.0.0.9 ")
	if got := ClientIP(req); got != "10.0.0.9" {
		t.Fatalf("real ip=%q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("forwarded ip=%q", got)
	}
}
