package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trading_console/internal/backend"
	"trading_console/internal/session"
)

// memoryKV is an in-memory stand-in for the sqlite state repository.
type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Clear() error {
	m.data = map[string]string{}
	return nil
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.New(newMemoryKV(), nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

// newTestBackend starts a mock trading backend with the given handlers keyed
// by "METHOD /path" and returns a client pointed at it.
func newTestBackend(t *testing.T, routes map[string]http.HandlerFunc) *backend.Client {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return backend.NewClient(server.URL)
}

// unreachableBackend returns a client whose every request fails at the
// transport level.
func unreachableBackend() *backend.Client {
	return backend.NewClient("http://127.0.0.1:1")
}

func respondJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding mock response: %v", err)
	}
}

func wantLogs(t *testing.T, store *session.Store, want []string) {
	t.Helper()
	got := store.Logs()
	if len(got) != len(want) {
		t.Fatalf("got %d log lines %q, want %d %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("log %d = %q, want %q", i, got[i], want[i])
		}
	}
}
