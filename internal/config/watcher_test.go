package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, path string, opts ...WatcherOption[*Settings]) *Watcher[*Settings] {
	t.Helper()
	opts = append([]WatcherOption[*Settings]{WithDebounce[*Settings](50 * time.Millisecond)}, opts...)
	w := NewWatcher(path, LoadSettings, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func levelsFile(level string) []byte {
	return fmt.Appendf(nil, "[logging.levels]\nroot = %q\n", level)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	received := make(chan *Settings, 1)
	w := startWatcher(t, path)
	w.OnReload(func(s *Settings) { received <- s })

	if err := os.WriteFile(path, levelsFile("debug"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-received:
		if s.Logging.Levels["root"] != "debug" {
			t.Errorf("got levels %v, want root=debug", s.Logging.Levels)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcherReloadsOnRename(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	received := make(chan *Settings, 1)
	w := startWatcher(t, path)
	w.OnReload(func(s *Settings) { received <- s })

	tmp := filepath.Join(filepath.Dir(path), ".taxii.toml.swp")
	if err := os.WriteFile(tmp, levelsFile("error"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-received:
		if s.Logging.Levels["root"] != "error" {
			t.Errorf("got levels %v, want root=error", s.Logging.Levels)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	var count atomic.Int32
	w := startWatcher(t, path)
	w.OnReload(func(*Settings) { count.Add(1) })

	other := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(other, levelsFile("debug"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no reloads, got %d", got)
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	errs := make(chan error, 1)
	configs := make(chan *Settings, 1)
	w := startWatcher(t, path, WithErrorHandler[*Settings](func(err error) { errs <- err }))
	w.OnReload(func(s *Settings) { configs <- s })

	if err := os.WriteFile(path, []byte("[logging.levels\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-configs:
		t.Fatal("reload handler should not run when loading fails")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcherDebounce(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	var count atomic.Int32
	var last atomic.Value
	w := startWatcher(t, path, WithDebounce[*Settings](200*time.Millisecond))
	w.OnReload(func(s *Settings) {
		count.Add(1)
		last.Store(s.Logging.Levels["root"])
	})

	for _, level := range []string{"debug", "warning", "error", "critical"} {
		if err := os.WriteFile(path, levelsFile(level), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced reload, got %d", got)
	}
	if got := last.Load(); got != "critical" {
		t.Errorf("expected last level critical, got %v", got)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	var kept, removed atomic.Int32
	w := startWatcher(t, path)
	w.OnReload(func(*Settings) { kept.Add(1) })
	unsub := w.OnReload(func(*Settings) { removed.Add(1) })

	if err := os.WriteFile(path, levelsFile("debug"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)
	unsub()

	if err := os.WriteFile(path, levelsFile("error"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	if got := kept.Load(); got != 2 {
		t.Errorf("kept handler: expected 2 calls, got %d", got)
	}
	if got := removed.Load(); got != 1 {
		t.Errorf("removed handler: expected 1 call, got %d", got)
	}
}

func TestWatcherConcurrentSubscribers(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))
	w := startWatcher(t, path, WithDebounce[*Settings](10*time.Millisecond))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := w.OnReload(func(*Settings) {})
			time.Sleep(time.Millisecond)
			unsub()
		}()
	}

	for _, level := range []string{"debug", "info", "warning"} {
		if err := os.WriteFile(path, levelsFile(level), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()
}

func TestWatcherStop(t *testing.T) {
	path := writeConfig(t, string(levelsFile("info")))

	var count atomic.Int32
	w := NewWatcher(path, LoadSettings, newTestLogger(), WithDebounce[*Settings](50*time.Millisecond))
	w.OnReload(func(*Settings) { count.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, levelsFile("debug"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no reloads after Stop, got %d", got)
	}
}
