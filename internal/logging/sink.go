package logging

import (
	"io"
	"log/slog"
	"sync"
)

// Sink receives rendered lines. It plays the role of a handler attached to
// a logger: Configure removes every sink and attaches one stdout sink to
// the root logger.
type Sink interface {
	Emit(level slog.Level, line string) error
}

// WriterSink writes each line followed by a newline to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit implements Sink.
func (s *WriterSink) Emit(_ slog.Level, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(level slog.Level, line string) error

// Emit implements Sink.
func (f SinkFunc) Emit(level slog.Level, line string) error {
	return f(level, line)
}
