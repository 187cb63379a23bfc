// Package services implements the dashboard's trading operations: the broker
// connect form, the stock select form, the report calculations and the
// password reset flow. Services mutate the session store and talk to the
// trading backend; handlers stay thin.
package services

import (
	"log"

	"trading_console/internal/backend"
	"trading_console/internal/session"
)

// BrokerService drives the broker-connect form.
type BrokerService struct {
	store  *session.Store
	client *backend.Client
}

// NewBrokerService creates a broker service.
func NewBrokerService(store *session.Store, client *backend.Client) *BrokerService {
	return &BrokerService{store: store, client: client}
}

// ChangeBrokerCount resizes the broker form to n entries.
func (s *BrokerService) ChangeBrokerCount(n int) error {
	return s.store.SetBrokerCount(n)
}

// ChangeBroker updates one entry's broker name. Any previous connect outcome
// for that entry is discarded.
func (s *BrokerService) ChangeBroker(index int, name string) error {
	return s.store.SetBrokerName(index, name)
}

// ChangeCredential sets one credential field on one broker entry.
func (s *BrokerService) ChangeCredential(index int, key, value string) error {
	return s.store.SetCredential(index, key, value)
}

// Connect submits every broker entry for authentication and records the
// per-broker outcome. The log panel is cleared first so the outcomes read as
// one batch. When the backend is unreachable a single failure line is logged
// and the broker entries keep their previous state.
func (s *BrokerService) Connect() error {
	if err := s.store.ClearLogs(); err != nil {
		return err
	}

	snapshot := s.store.Snapshot()
	results, err := s.client.ConnectBrokers(snapshot.Brokers)
	if err != nil {
		log.Printf("[Brokers] connect failed: %v", err)
		return s.store.AppendLog("❌ Error connecting to broker.")
	}

	// Results are keyed by broker name, not by position.
	byKey := make(map[string]backend.ConnectResult, len(results))
	for _, result := range results {
		byKey[result.BrokerKey] = result
	}

	for i, broker := range snapshot.Brokers {
		profile := resolveProfile(byKey, broker.Name)
		if err := s.store.SetBrokerProfile(i, profile); err != nil {
			return err
		}
	}
	return nil
}

// resolveProfile converts one broker's connect result into a stored profile.
// A missing or non-success result becomes a failed profile with the backend's
// message when it gave one.
func resolveProfile(byKey map[string]backend.ConnectResult, name string) *session.BrokerProfile {
	result, ok := byKey[name]
	if ok && result.Status == "success" {
		return &session.BrokerProfile{Status: "success", Details: result.ProfileData}
	}

	message := result.Message
	if message == "" {
		message = "Connection failed."
	}
	return &session.BrokerProfile{Status: "failed", Message: message}
}
