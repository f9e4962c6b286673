// Package audit records who triggered which simulation action.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the API.
const (
	ActionRunSimulation = "simulation.run"
	ActionReadFailures  = "simulation.read_failures"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func normalize(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	return entry
}

// LogWriter writes audit entries as structured log lines.
type LogWriter struct {
	logger *log.Logger
}

// NewLogWriter constructs a LogWriter.
func NewLogWriter(logger *log.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

// Log writes entry to the logger.
func (w *LogWriter) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	if w == nil || w.logger == nil {
		return nil
	}
	entry = normalize(entry)
	w.logger.Printf("event=audit id=%s actor=%s role=%s action=%s resource=%s/%s digest=%s ip=%s",
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.PayloadDigest, entry.IP)
	return nil
}

// Recorder keeps audit entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Log appends entry.
func (r *Recorder) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	r.mu.Lock()
	r.entries = append(r.entries, normalize(entry))
	r.mu.Unlock()
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
