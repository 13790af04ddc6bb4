package diagnostics

import (
	"strings"
	"sync"
)

// LogBuffer is a fixed-size ring of recent log lines served by /debug/logs.
// It doubles as an io.Writer so a zap core can tee into it.
type LogBuffer struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewLogBuffer builds buffer holding at most limit lines.
func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = 100
	}
	return &LogBuffer{lines: make([]string, limit)}
}

// Append stores new log line, overwriting the oldest when full.
func (b *LogBuffer) Append(entry string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.next] = entry
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
}

// Write implements io.Writer; each call is one encoded log entry.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.Append(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (b *LogBuffer) Sync() error { return nil }

// Snapshot returns lines oldest first.
func (b *LogBuffer) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.full {
		out := make([]string, b.next)
		copy(out, b.lines[:b.next])
		return out
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	return append(out, b.lines[:b.next]...)
}
