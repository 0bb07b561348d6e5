package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is matched by errors.Is for every *MissingFieldError.
var ErrMissingField = errors.New("missing log event field")

// MissingFieldError means an upstream processor did not attach a field the
// renderer needs.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("log event has no %q field", e.Field)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Renderer is the terminal stage of the chain: it turns an event into one
// output line without a trailing newline.
type Renderer interface {
	Render(ev *Event) (string, error)
}

// PlainRenderer renders events as
//
//	<timestamp> [<logger>] <level>: <event> {k1=v1, k2=v2, ...}
//
// The braces list every field, the four headline fields included, in event
// order.
type PlainRenderer struct{}

var plainRequired = []string{KeyTimestamp, KeyLogger, KeyLevel, KeyEvent}

// Render implements Renderer.
func (PlainRenderer) Render(ev *Event) (string, error) {
	for _, key := range plainRequired {
		if !ev.Has(key) {
			return "", &MissingFieldError{Field: key}
		}
	}

	pairs := make([]string, 0, ev.Len())
	ev.Range(func(k string, v any) bool {
		pairs = append(pairs, k+"="+stringify(v))
		return true
	})

	ts, _ := ev.Get(KeyTimestamp)
	logger, _ := ev.Get(KeyLogger)
	level, _ := ev.Get(KeyLevel)
	msg, _ := ev.Get(KeyEvent)

	var sb strings.Builder
	sb.WriteString(stringify(ts))
	sb.WriteString(" [")
	sb.WriteString(stringify(logger))
	sb.WriteString("] ")
	sb.WriteString(stringify(level))
	sb.WriteString(": ")
	sb.WriteString(stringify(msg))
	sb.WriteString(" {")
	sb.WriteString(strings.Join(pairs, ", "))
	sb.WriteString("}")
	return sb.String(), nil
}

// JSONRenderer renders each event as a single JSON object.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(ev *Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode log event: %w", err)
	}
	return string(data), nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
