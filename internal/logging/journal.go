package logging

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalSink sends rendered lines to the systemd journal.
type JournalSink struct {
	identifier string
}

// NewJournalSink creates a journal sink tagging entries with identifier.
func NewJournalSink(identifier string) *JournalSink {
	return &JournalSink{identifier: identifier}
}

// Emit implements Sink.
func (s *JournalSink) Emit(level slog.Level, line string) error {
	return journal.Send(line, journalPriority(level), map[string]string{
		"SYSLOG_IDENTIFIER": s.identifier,
	})
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= LevelCritical:
		return journal.PriCrit
	case level >= LevelError:
		return journal.PriErr
	case level >= LevelWarning:
		return journal.PriWarning
	case level >= LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
