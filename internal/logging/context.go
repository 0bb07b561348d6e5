package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// loggerState is the per-name entry in a Context registry.
type loggerState struct {
	sinks    []Sink
	level    slog.Level
	hasLevel bool
}

// Context owns a logger hierarchy, its processor chain and its renderer.
//
// Logger names are dotted paths; the root logger is "". A logger without
// its own threshold inherits the nearest ancestor's, and every record is
// delivered to the sinks of its logger and of all ancestors.
type Context struct {
	mu       sync.RWMutex
	loggers  map[string]*loggerState
	slogs    map[string]*slog.Logger
	chain    []Processor
	renderer Renderer
	output   io.Writer
	now      func() time.Time
}

// Option configures a Context.
type Option func(*Context)

// WithOutput sets the writer used for the sink Configure attaches to root.
// Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Context) {
		c.output = w
	}
}

// WithClock sets the time source used when a record has no time.
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.now = now
	}
}

// NewContext creates an unconfigured context. Records are discarded until
// Configure or AddSink attaches a sink.
func NewContext(opts ...Option) *Context {
	c := &Context{
		loggers: map[string]*loggerState{
			"": {level: defaultRootLevel, hasLevel: true},
		},
		slogs:    make(map[string]*slog.Logger),
		renderer: JSONRenderer{},
		output:   os.Stdout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.chain = c.processors()
	return c
}

// Configure replaces the whole logging setup:
//
//  1. every sink on every known logger, root included, is removed and
//     thresholds are cleared;
//  2. the renderer becomes PlainRenderer when plain is set, JSONRenderer
//     otherwise;
//  3. the processor chain is rebuilt in its fixed order;
//  4. a single sink writing to the output stream is attached to root;
//  5. levels are applied, "root" in any case naming the root logger.
//
// Calling Configure again fully replaces the previous call. An unknown
// level name aborts step 5 with an *InvalidLevelError; levels applied
// before it stay in effect.
func (c *Context) Configure(levels map[string]string, plain bool) error {
	c.Reset()

	var renderer Renderer = JSONRenderer{}
	if plain {
		renderer = PlainRenderer{}
	}

	c.mu.Lock()
	c.renderer = renderer
	c.chain = c.processors()
	c.state("").sinks = []Sink{NewWriterSink(c.output)}
	c.mu.Unlock()

	for _, name := range sortedKeys(levels) {
		if err := c.SetLevel(name, levels[name]); err != nil {
			return err
		}
	}
	return nil
}

// processors returns the stages that run before the renderer, in order.
func (c *Context) processors() []Processor {
	return []Processor{
		FilterByLevel(c.EffectiveLevel),
		AddLoggerName,
		AddLogLevel,
		PositionalArgumentsFormatter,
		TimeStamper(c.now),
		StackInfoRenderer,
		FormatExcInfo,
	}
}

// Reset removes all sinks from every registered logger and the root
// logger, and clears every threshold. Loggers handed out earlier stay
// valid and pick up whatever is configured next.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, st := range c.loggers {
		st.sinks = nil
		st.hasLevel = name == ""
		st.level = 0
	}
	c.loggers[""].level = defaultRootLevel
}

// SetLevel sets the threshold of the named logger. "notset" clears it so
// the logger inherits from its ancestors; on root it lets everything through.
func (c *Context) SetLevel(name, level string) error {
	key := loggerKey(name)
	lvl, err := ParseLevel(level)
	if err != nil {
		var lerr *InvalidLevelError
		if errors.As(err, &lerr) {
			lerr.Logger = key
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(key)
	if lvl == LevelNotSet && key != "" {
		st.hasLevel = false
		return nil
	}
	st.level = lvl
	st.hasLevel = true
	return nil
}

// EffectiveLevel returns the threshold that applies to the named logger.
func (c *Context) EffectiveLevel(name string) slog.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range lineage(loggerKey(name)) {
		if st, ok := c.loggers[key]; ok && st.hasLevel {
			return st.level
		}
	}
	return defaultRootLevel
}

// AddSink attaches a sink to the named logger.
func (c *Context) AddSink(name string, sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(loggerKey(name))
	st.sinks = append(st.sinks, sink)
}

// Sinks returns the sinks attached directly to the named logger.
func (c *Context) Sinks(name string) []Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.loggers[loggerKey(name)]
	if !ok {
		return nil
	}
	sinks := make([]Sink, len(st.sinks))
	copy(sinks, st.sinks)
	return sinks
}

// Loggers returns the registered logger names, sorted. Root is "".
func (c *Context) Loggers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.loggers))
	for name := range c.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Logger returns the slog logger for name, registering it on first use.
// The same *slog.Logger is returned on every call and follows later
// reconfiguration.
func (c *Context) Logger(name string) *slog.Logger {
	key := loggerKey(name)

	c.mu.RLock()
	if logger, ok := c.slogs[key]; ok {
		c.mu.RUnlock()
		return logger
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if logger, ok := c.slogs[key]; ok {
		return logger
	}
	c.state(key)
	logger := slog.New(&handler{ctx: c, name: key})
	c.slogs[key] = logger
	return logger
}

// emit runs an entry through the chain and hands the rendered line to the
// sinks of the logger and its ancestors.
func (c *Context) emit(entry *Entry) error {
	c.mu.RLock()
	chain := c.chain
	renderer := c.renderer
	var sinks []Sink
	for _, key := range lineage(entry.Logger) {
		if st, ok := c.loggers[key]; ok {
			sinks = append(sinks, st.sinks...)
		}
	}
	c.mu.RUnlock()

	if len(sinks) == 0 {
		return nil
	}

	for _, process := range chain {
		if err := process(entry); err != nil {
			if errors.Is(err, ErrDropEvent) {
				return nil
			}
			return err
		}
	}

	line, err := renderer.Render(entry.Event)
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		if sinkErr := sink.Emit(entry.Level, line); sinkErr != nil {
			errs = append(errs, sinkErr)
		}
	}
	return errors.Join(errs...)
}

// state returns the registry entry for key, creating it. Caller holds mu.
func (c *Context) state(key string) *loggerState {
	st, ok := c.loggers[key]
	if !ok {
		st = &loggerState{}
		c.loggers[key] = st
	}
	return st
}

// lineage returns name followed by its dotted ancestors and root.
// "a.b.c" yields ["a.b.c", "a.b", "a", ""].
func lineage(name string) []string {
	if name == "" {
		return []string{""}
	}
	keys := []string{name}
	for i := strings.LastIndexByte(name, '.'); i > 0; i = strings.LastIndexByte(name[:i], '.') {
		keys = append(keys, name[:i])
	}
	return append(keys, "")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
