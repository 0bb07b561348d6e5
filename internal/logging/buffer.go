package logging

import (
	"log/slog"
	"sync"
	"time"
)

// Line is a rendered log line kept by a BufferSink.
type Line struct {
	Time  time.Time `json:"time"`
	Level string    `json:"level"`
	Text  string    `json:"text"`
}

// BufferSink keeps the most recent rendered lines in a ring buffer.
type BufferSink struct {
	mu      sync.RWMutex
	entries []Line
	size    int
	head    int
	count   int
	total   int
	now     func() time.Time
}

// NewBufferSink creates a buffer holding up to size lines.
func NewBufferSink(size int) *BufferSink {
	if size <= 0 {
		size = 1
	}
	return &BufferSink{
		entries: make([]Line, size),
		size:    size,
		now:     time.Now,
	}
}

// Emit implements Sink, overwriting the oldest line when full.
func (b *BufferSink) Emit(level slog.Level, line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = Line{Time: b.now(), Level: LevelName(level), Text: line}
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
	b.total++
	return nil
}

// Lines returns the buffered lines, oldest first.
func (b *BufferSink) Lines() []Line {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	result := make([]Line, b.count)
	if b.count < b.size {
		copy(result, b.entries[:b.count])
	} else {
		n := copy(result, b.entries[b.head:])
		copy(result[n:], b.entries[:b.head])
	}
	return result
}

// Count returns the number of buffered lines.
func (b *BufferSink) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Total returns the number of lines emitted since creation, including
// those already overwritten.
func (b *BufferSink) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
