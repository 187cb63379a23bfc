// Package stream consumes the backend's server-sent event log feed.
package stream

import (
	"bufio"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Policy controls what a subscription does when the feed drops.
// The zero value closes the subscription on the first error and never
// reconnects.
type Policy struct {
	Reconnect bool
	Delay     time.Duration
}

// DefaultRetryDelay is used when a reconnecting policy leaves Delay unset.
const DefaultRetryDelay = 5 * time.Second

// Subscription is a live connection to an event stream. Lines are delivered
// to the subscriber callback in arrival order from a single goroutine.
type Subscription struct {
	url    string
	onLine func(string)
	policy Policy

	client *http.Client

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

// Open connects to the event stream at url and delivers each event payload
// to onLine. The connection runs in a background goroutine until Close is
// called or, under the default policy, until the stream drops.
func Open(url string, onLine func(string), policy Policy) *Subscription {
	if policy.Reconnect && policy.Delay <= 0 {
		policy.Delay = DefaultRetryDelay
	}

	s := &Subscription{
		url:    url,
		onLine: onLine,
		policy: policy,
		// No timeout: the stream is expected to stay open indefinitely.
		client: &http.Client{},
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go s.run()
	return s
}

// Close terminates the subscription and waits for the reader goroutine to
// exit. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	<-s.done
}

// Done is closed once the reader goroutine has exited, whether from Close or
// from a non-reconnecting stream drop.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run() {
	defer close(s.done)

	for {
		err := s.consume()

		select {
		case <-s.stop:
			return
		default:
		}

		if err != nil {
			log.Printf("[Stream] feed dropped: %v", err)
		} else {
			log.Printf("[Stream] feed closed by server")
		}

		if !s.policy.Reconnect {
			return
		}

		select {
		case <-s.stop:
			return
		case <-time.After(s.policy.Delay):
		}
	}
}

// consume opens one connection and parses events until the stream ends. SSE
// events are "data:" lines accumulated until a blank line; multi-line events
// join their data lines with newlines.
func (s *Subscription) consume() error {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	// Close the body when asked to stop so the scanner unblocks.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-s.stop:
			resp.Body.Close()
		case <-watcherDone:
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if payload := strings.Join(data, "\n"); payload != "" {
				s.onLine(payload)
			}
			data = data[:0]
			continue
		}

		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
		// Comment lines and other fields (event:, id:, retry:) are ignored.
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
