package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/opentaxii-core/internal/api/models"
	"github.com/smazurov/opentaxii-core/internal/auth"
	"github.com/smazurov/opentaxii-core/internal/backends/memory"
	"github.com/smazurov/opentaxii-core/internal/events"
	"github.com/smazurov/opentaxii-core/internal/logging"
)

type failingAuth struct{}

func (failingAuth) Authenticate(context.Context, auth.Credentials) (auth.Account, error) {
	return auth.Account{}, errors.New("database is locked")
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()
	if opts.Authenticator == nil {
		authn, err := memory.NewStaticAuth(context.Background(), memory.Params{
			Users:  map[string]string{"admin": "secret", "reader": "pw"},
			Admins: []string{"admin"},
		})
		if err != nil {
			t.Fatalf("NewStaticAuth failed: %v", err)
		}
		opts.Authenticator = authn
	}
	ts := httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url, authHeader string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return v
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	ts := newTestServer(t, &Options{})

	for _, path := range []string{"/api/health", "/api/version"} {
		resp := get(t, ts.URL+path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}

	health := decode[models.HealthData](t, get(t, ts.URL+"/api/health", ""))
	if health.Status != "ok" {
		t.Errorf("health status = %q", health.Status)
	}
}

func TestBasicAuthRejections(t *testing.T) {
	ts := newTestServer(t, &Options{})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"bearer scheme", "Bearer abc"},
		{"not base64", "Basic !!!"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin"))},
		{"wrong password", basic("admin", "nope")},
		{"unknown user", basic("mallory", "secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/api/whoami", tt.header)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			if got := resp.Header.Get("WWW-Authenticate"); got != `Basic realm="TAXII"` {
				t.Errorf("WWW-Authenticate = %q", got)
			}
		})
	}
}

func TestWhoAmI(t *testing.T) {
	ts := newTestServer(t, &Options{})

	tests := []struct {
		user, pass string
		admin      bool
	}{
		{"admin", "secret", true},
		{"reader", "pw", false},
	}
	for _, tt := range tests {
		resp := get(t, ts.URL+"/api/whoami", basic(tt.user, tt.pass))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		got := decode[models.WhoAmIData](t, resp)
		if got.Username != tt.user || got.Admin != tt.admin {
			t.Errorf("whoami = %+v, want %s admin=%v", got, tt.user, tt.admin)
		}
	}
}

func TestAuthBackendErrors(t *testing.T) {
	ts := newTestServer(t, &Options{Authenticator: failingAuth{}})
	if resp := get(t, ts.URL+"/api/whoami", basic("admin", "secret")); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	srv := NewServer(&Options{})
	srv.SetAuthenticator(nil)
	noBackend := httptest.NewServer(srv.Handler())
	defer noBackend.Close()
	if resp := get(t, noBackend.URL+"/api/whoami", basic("admin", "secret")); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAuthAttemptsPublished(t *testing.T) {
	bus := events.New()
	results := make(chan events.AuthAttemptEvent, 4)
	unsub := bus.Subscribe(func(e events.AuthAttemptEvent) { results <- e })
	defer unsub()

	ts := newTestServer(t, &Options{Bus: bus})
	get(t, ts.URL+"/api/whoami", basic("admin", "wrong"))

	select {
	case e := <-results:
		if e.Result != events.AuthBadCredentials || e.Username != "admin" || e.Path != "/api/whoami" {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for auth event")
	}
}

func TestServicesResolveAgainstDomain(t *testing.T) {
	ts := newTestServer(t, &Options{
		Domain: "http://localhost:9000",
		Services: map[string]string{
			"inbox":     "https://other.example/inbox",
			"discovery": "/services/discovery",
		},
	})

	resp := get(t, ts.URL+"/api/services", basic("reader", "pw"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[models.ServicesData](t, resp)

	want := []models.ServiceData{
		{Name: "discovery", Address: "http://localhost:9000/services/discovery", Path: "/services/discovery"},
		{Name: "inbox", Address: "https://other.example/inbox"},
	}
	if len(got.Services) != len(want) {
		t.Fatalf("services = %+v", got.Services)
	}
	for i := range want {
		if got.Services[i] != want[i] {
			t.Errorf("services[%d] = %+v, want %+v", i, got.Services[i], want[i])
		}
	}
}

func TestSetServices(t *testing.T) {
	srv := NewServer(&Options{Domain: "http://a", Services: map[string]string{"x": "/x"}})
	srv.SetServices("http://b", map[string]string{"y": "/y"})

	data := srv.servicesData()
	if data.Domain != "http://b" || len(data.Services) != 1 || data.Services[0].Address != "http://b/y" {
		t.Errorf("unexpected services %+v", data)
	}
}

func TestRecentLogs(t *testing.T) {
	buf := logging.NewBufferSink(10)
	for _, line := range []string{"one", "two", "three"} {
		_ = buf.Emit(logging.LevelInfo, line)
	}
	ts := newTestServer(t, &Options{Logs: buf})

	resp := get(t, ts.URL+"/api/logs?limit=2", basic("admin", "secret"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[models.LogsData](t, resp)
	if len(got.Lines) != 2 || got.Lines[0].Text != "two" || got.Lines[1].Text != "three" {
		t.Errorf("lines = %+v", got.Lines)
	}
	if got.Total < 3 {
		t.Errorf("total = %d, want at least 3", got.Total)
	}
}

func TestRecentLogsWithoutBuffer(t *testing.T) {
	srv := NewServer(&Options{})
	data := srv.logsData(0)
	if data.Lines == nil || len(data.Lines) != 0 {
		t.Errorf("expected empty non-nil lines, got %#v", data.Lines)
	}
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "taxii_up 1\n")
	})
	ts := newTestServer(t, &Options{PrometheusHandler: metrics})

	resp := get(t, ts.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "taxii_up") {
		t.Errorf("status = %d body = %q", resp.StatusCode, body)
	}
}

func TestStartAndStop(t *testing.T) {
	srv := NewServer(&Options{})
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- srv.Start("127.0.0.1:0", func() { close(ready) }) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("Start returned early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for ready")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Start returned %v after Stop, want nil", err)
	}
}
