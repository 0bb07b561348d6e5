package events

// Event type constants for kelindar/event.
const (
	TypeConfigReloaded uint32 = iota + 1
	TypePluginLoaded
	TypeAuthAttempt
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ConfigReloadedEvent is published after the config file was re-read.
// Err is empty when the new settings were applied.
type ConfigReloadedEvent struct {
	Path      string            `json:"path"`
	Levels    map[string]string `json:"levels,omitempty"`
	Err       string            `json:"error,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }

// PluginLoadedEvent is published after a configured plugin class was
// resolved and instantiated, or failed to.
type PluginLoadedEvent struct {
	Class     string `json:"class"`
	Err       string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for PluginLoadedEvent.
func (e PluginLoadedEvent) Type() uint32 { return TypePluginLoaded }

// AuthAttemptEvent is published for every request that carried, or should
// have carried, credentials.
type AuthAttemptEvent struct {
	Username string `json:"username,omitempty"`
	Path     string `json:"path"`
	Result   string `json:"result"`
}

// Type returns the event type identifier for AuthAttemptEvent.
func (e AuthAttemptEvent) Type() uint32 { return TypeAuthAttempt }

// Auth attempt results.
const (
	AuthOK             = "ok"
	AuthMissing        = "missing"
	AuthMalformed      = "malformed"
	AuthBadCredentials = "bad_credentials"
)
