package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Reserved event keys understood by the processor chain.
const (
	KeyEvent          = "event"
	KeyLogger         = "logger"
	KeyLevel          = "level"
	KeyTimestamp      = "timestamp"
	KeyPositionalArgs = "positional_args"
	KeyStackInfo      = "stack_info"
	KeyStack          = "stack"
	KeyExcInfo        = "exc_info"
	KeyException      = "exception"
)

// rootLoggerName is the name attached to events from the root logger.
const rootLoggerName = "root"

// isoTimeFormat is ISO-8601 in UTC with microseconds.
const isoTimeFormat = "2006-01-02T15:04:05.000000Z"

// ErrDropEvent is returned by a processor to discard the event silently.
var ErrDropEvent = errors.New("drop event")

// Entry is the unit of work passed through the processor chain.
type Entry struct {
	Logger string
	Level  slog.Level
	Time   time.Time
	Event  *Event
}

// Processor transforms an entry in place. Returning ErrDropEvent stops the
// chain without output; any other error is reported to the caller.
type Processor func(e *Entry) error

// FilterByLevel drops entries below the threshold returned for their logger.
func FilterByLevel(threshold func(logger string) slog.Level) Processor {
	return func(e *Entry) error {
		if e.Level < threshold(e.Logger) {
			return ErrDropEvent
		}
		return nil
	}
}

// AddLoggerName sets the "logger" field. The root logger is named "root".
func AddLoggerName(e *Entry) error {
	name := e.Logger
	if name == "" {
		name = rootLoggerName
	}
	e.Event.Set(KeyLogger, name)
	return nil
}

// AddLogLevel sets the "level" field to the lowercase level name.
func AddLogLevel(e *Entry) error {
	e.Event.Set(KeyLevel, LevelName(e.Level))
	return nil
}

// PositionalArgumentsFormatter formats the event message with the values
// attached by Args, then removes them.
func PositionalArgumentsFormatter(e *Entry) error {
	raw, ok := e.Event.Get(KeyPositionalArgs)
	if !ok {
		return nil
	}
	e.Event.Delete(KeyPositionalArgs)

	args, ok := raw.([]any)
	if !ok || len(args) == 0 {
		return nil
	}
	msg, _ := e.Event.Get(KeyEvent)
	e.Event.Set(KeyEvent, fmt.Sprintf(stringify(msg), args...))
	return nil
}

// TimeStamper sets the "timestamp" field from the record time, or from now
// when the record carries none.
func TimeStamper(now func() time.Time) Processor {
	if now == nil {
		now = time.Now
	}
	return func(e *Entry) error {
		ts := e.Time
		if ts.IsZero() {
			ts = now()
		}
		e.Event.Set(KeyTimestamp, ts.UTC().Format(isoTimeFormat))
		return nil
	}
}

// StackInfoRenderer replaces a truthy "stack_info" with the current
// goroutine stack under "stack".
func StackInfoRenderer(e *Entry) error {
	raw, ok := e.Event.Get(KeyStackInfo)
	if !ok {
		return nil
	}
	e.Event.Delete(KeyStackInfo)
	if want, isBool := raw.(bool); isBool && want {
		e.Event.Set(KeyStack, string(debug.Stack()))
	}
	return nil
}

// FormatExcInfo replaces an error stored under "exc_info" with its
// formatted text under "exception".
func FormatExcInfo(e *Entry) error {
	raw, ok := e.Event.Get(KeyExcInfo)
	if !ok {
		return nil
	}
	e.Event.Delete(KeyExcInfo)
	if err, isErr := raw.(error); isErr && err != nil {
		e.Event.Set(KeyException, fmt.Sprintf("%+v", err))
	}
	return nil
}

// Args attaches positional arguments that PositionalArgumentsFormatter
// applies to the message as fmt verbs.
//
//	logger.Info("loaded %d backends from %s", logging.Args(n, path))
func Args(v ...any) slog.Attr {
	return slog.Any(KeyPositionalArgs, v)
}

// Stack requests the current stack to be rendered with the event.
func Stack() slog.Attr {
	return slog.Bool(KeyStackInfo, true)
}

// Exc attaches err as exception info.
func Exc(err error) slog.Attr {
	return slog.Any(KeyExcInfo, err)
}
