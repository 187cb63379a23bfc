package stream

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// sseServer serves a fixed set of events and then closes the connection.
func sseServer(t *testing.T, events []string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func collectLines(lines *[]string, mu *sync.Mutex) func(string) {
	return func(line string) {
		mu.Lock()
		*lines = append(*lines, line)
		mu.Unlock()
	}
}

func TestSubscription_DeliversEventsInOrder(t *testing.T) {
	server := sseServer(t, []string{
		"🟢 Starting all trades...",
		"Engine started for RELIANCE",
		"🔵 Position closed",
	})

	var mu sync.Mutex
	var lines []string
	sub := Open(server.URL, collectLines(&lines, &mu), Policy{})
	defer sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"🟢 Starting all trades...", "Engine started for RELIANCE", "🔵 Position closed"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSubscription_SkipsEmptyPayloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data:\n\n")
		fmt.Fprint(w, ": heartbeat comment\n\n")
		fmt.Fprint(w, "data: real line\n\n")
	}))
	t.Cleanup(server.Close)

	var mu sync.Mutex
	var lines []string
	sub := Open(server.URL, collectLines(&lines, &mu), Policy{})
	defer sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != "real line" {
		t.Errorf("lines = %v, want [real line]", lines)
	}
}

func TestSubscription_NoReconnectByDefault(t *testing.T) {
	var connects int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		connects++
		mu.Unlock()
		fmt.Fprint(w, "data: once\n\n")
	}))
	t.Cleanup(server.Close)

	sub := Open(server.URL, func(string) {}, Policy{})
	defer sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not finish")
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if connects != 1 {
		t.Errorf("server saw %d connections, want 1", connects)
	}
}

func TestSubscription_ReconnectPolicyRetries(t *testing.T) {
	var mu sync.Mutex
	var connects int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		connects++
		n := connects
		mu.Unlock()
		fmt.Fprintf(w, "data: connection %d\n\n", n)
	}))
	t.Cleanup(server.Close)

	sub := Open(server.URL, func(string) {}, Policy{Reconnect: true, Delay: 20 * time.Millisecond})

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := connects
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d connections before deadline", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	sub.Close()
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: hello\n\n")
		flusher.Flush()
		// Hold the connection open until the client disconnects.
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	sub := Open(server.URL, func(string) {}, Policy{})

	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Close")
	}
}
