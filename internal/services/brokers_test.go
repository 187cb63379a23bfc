package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"trading_console/internal/backend"
	"trading_console/internal/session"
)

func TestBrokerService_Connect_MatchesResultsByName(t *testing.T) {
	client := newTestBackend(t, map[string]http.HandlerFunc{
		"POST /connect-broker": func(w http.ResponseWriter, r *http.Request) {
			var req backend.ConnectRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding connect request: %v", err)
			}
			respondJSON(t, w, []backend.ConnectResult{
				// Deliberately out of form order.
				{BrokerKey: "fyers", Status: "failed", Message: "Invalid API key"},
				{BrokerKey: "zerodha", Status: "success", ProfileData: map[string]any{"client_id": "Z123"}},
			})
		},
	})

	store := newTestStore(t)
	svc := NewBrokerService(store, client)

	if err := svc.ChangeBrokerCount(2); err != nil {
		t.Fatalf("ChangeBrokerCount: %v", err)
	}
	if err := svc.ChangeBroker(0, "zerodha"); err != nil {
		t.Fatalf("ChangeBroker: %v", err)
	}
	if err := svc.ChangeBroker(1, "fyers"); err != nil {
		t.Fatalf("ChangeBroker: %v", err)
	}

	if err := svc.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	snap := store.Snapshot()
	if p := snap.Brokers[0].Profile; p == nil || p.Status != "success" || p.Details["client_id"] != "Z123" {
		t.Errorf("broker 0 profile = %+v, want success with client_id Z123", snap.Brokers[0].Profile)
	}
	if p := snap.Brokers[1].Profile; p == nil || p.Status != "failed" || p.Message != "Invalid API key" {
		t.Errorf("broker 1 profile = %+v, want failed with Invalid API key", snap.Brokers[1].Profile)
	}
}

func TestBrokerService_Connect_MissingResultGetsGenericFailure(t *testing.T) {
	client := newTestBackend(t, map[string]http.HandlerFunc{
		"POST /connect-broker": func(w http.ResponseWriter, r *http.Request) {
			respondJSON(t, w, []backend.ConnectResult{})
		},
	})

	store := newTestStore(t)
	svc := NewBrokerService(store, client)

	if err := svc.ChangeBroker(0, "zerodha"); err != nil {
		t.Fatalf("ChangeBroker: %v", err)
	}
	if err := svc.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p := store.Snapshot().Brokers[0].Profile
	if p == nil || p.Status != "failed" || p.Message != "Connection failed." {
		t.Errorf("profile = %+v, want failed with Connection failed.", p)
	}
}

func TestBrokerService_Connect_ClearsPreviousLogs(t *testing.T) {
	client := newTestBackend(t, map[string]http.HandlerFunc{
		"POST /connect-broker": func(w http.ResponseWriter, r *http.Request) {
			respondJSON(t, w, []backend.ConnectResult{})
		},
	})

	store := newTestStore(t)
	if err := store.AppendLog("stale line"); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	svc := NewBrokerService(store, client)
	if err := svc.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	wantLogs(t, store, []string{})
}

func TestBrokerService_Connect_UnreachableBackendLeavesBrokersUntouched(t *testing.T) {
	store := newTestStore(t)
	svc := NewBrokerService(store, unreachableBackend())

	if err := svc.ChangeBroker(0, "zerodha"); err != nil {
		t.Fatalf("ChangeBroker: %v", err)
	}
	before := store.Snapshot()

	if err := svc.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	wantLogs(t, store, []string{"❌ Error connecting to broker."})

	after := store.Snapshot()
	if after.Brokers[0].Name != before.Brokers[0].Name || after.Brokers[0].Profile != nil {
		t.Errorf("broker state changed after transport failure: %+v", after.Brokers[0])
	}
}

func TestBrokerService_ChangeBroker_ClearsProfile(t *testing.T) {
	store := newTestStore(t)
	svc := NewBrokerService(store, unreachableBackend())

	if err := store.SetBrokerProfile(0, &session.BrokerProfile{Status: "success"}); err != nil {
		t.Fatalf("SetBrokerProfile: %v", err)
	}
	if err := svc.ChangeBroker(0, "fyers"); err != nil {
		t.Fatalf("ChangeBroker: %v", err)
	}

	if p := store.Snapshot().Brokers[0].Profile; p != nil {
		t.Errorf("profile = %+v, want nil after name change", p)
	}
}
