package logging

import (
	"context"
	"log/slog"
	"strings"
)

// handler is the slog.Handler behind every Context logger. It holds no
// configuration of its own, so a logger obtained before Configure follows
// whatever Configure installs later.
type handler struct {
	ctx    *Context
	name   string
	attrs  []slog.Attr
	groups []string
}

// Enabled implements slog.Handler.
func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.ctx.EffectiveLevel(h.name)
}

// Handle implements slog.Handler.
func (h *handler) Handle(_ context.Context, r slog.Record) error {
	ev := NewEvent()
	for _, a := range h.attrs {
		flattenAttr(ev, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		flattenAttr(ev, h.groups, a)
		return true
	})
	ev.Set(KeyEvent, r.Message)

	return h.ctx.emit(&Entry{
		Logger: h.name,
		Level:  r.Level,
		Time:   r.Time,
		Event:  ev,
	})
}

// WithAttrs implements slog.Handler.
func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if len(h.groups) > 0 {
			a.Key = strings.Join(h.groups, ".") + "." + a.Key
		}
		prefixed = append(prefixed, a)
	}

	newAttrs := make([]slog.Attr, len(h.attrs)+len(prefixed))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], prefixed)

	return &handler{
		ctx:    h.ctx,
		name:   h.name,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &handler{
		ctx:    h.ctx,
		name:   h.name,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// flattenAttr stores a slog.Attr in ev, joining group names with dots.
// Values are kept as-is so processors can inspect errors and argument lists.
func flattenAttr(ev *Event, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			flattenAttr(ev, sub, ga)
		}
		return
	}
	ev.Set(key, a.Value.Any())
}
