// Package audit records administrative actions.
package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
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
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
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

// SlogLogger writes entries to a structured logger. Used when no database is configured.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger constructs a SlogLogger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log writes the entry at info level.
func (l *SlogLogger) Log(ctx context.Context, entry Entry) error {
	entry = normalize(entry)
	l.logger.InfoContext(ctx, "audit",
		"id", entry.ID,
		"actor", entry.Actor,
		"role", entry.Role,
		"action", entry.Action,
		"metadata", string(entry.Metadata),
		"payload_digest", entry.PayloadDigest,
		"ip", entry.IP,
		"user_agent", entry.UserAgent,
	)
	return nil
}
