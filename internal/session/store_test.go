package session

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"trading_console/internal/secret"
)

// memoryKV is an in-memory KV port for store tests.
type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(key string) (string, bool, error) {
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *memoryKV) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Clear() error {
	m.data = map[string]string{}
	return nil
}

func newTestStore(t *testing.T) (*Store, *memoryKV) {
	t.Helper()
	kv := newMemoryKV()
	store, err := New(kv, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store, kv
}

func TestStore_SetBrokerCount_ResizesToExactly(t *testing.T) {
	for n := MinBrokers; n <= MaxBrokers; n++ {
		t.Run(fmt.Sprintf("count_%d", n), func(t *testing.T) {
			store, _ := newTestStore(t)

			if err := store.SetBrokerCount(n); err != nil {
				t.Fatalf("SetBrokerCount(%d) error = %v", n, err)
			}

			sess := store.Snapshot()
			if sess.BrokerCount != n {
				t.Errorf("BrokerCount = %d, want %d", sess.BrokerCount, n)
			}
			if len(sess.Brokers) != n {
				t.Errorf("len(Brokers) = %d, want %d", len(sess.Brokers), n)
			}
		})
	}
}

func TestStore_SetBrokerCount_PreservesEntriesByIndex(t *testing.T) {
	store, _ := newTestStore(t)

	store.SetBrokerCount(3)
	store.SetBrokerName(1, "z")
	store.SetCredential(1, "api_key", "abc123")

	// Shrink below the modified entry, then grow back
	store.SetBrokerCount(2)
	store.SetBrokerCount(5)

	sess := store.Snapshot()
	if sess.Brokers[1].Name != "z" {
		t.Errorf("broker 1 name = %q, want %q", sess.Brokers[1].Name, "z")
	}
	if sess.Brokers[1].Credentials["api_key"] != "abc123" {
		t.Error("broker 1 credentials not preserved across resize")
	}

	// Padded entries are defaults
	for i := 2; i < 5; i++ {
		if sess.Brokers[i].Name != DefaultBrokerName {
			t.Errorf("broker %d name = %q, want default %q", i, sess.Brokers[i].Name, DefaultBrokerName)
		}
	}
}

func TestStore_SetBrokerCount_OutOfRange_ReturnsError(t *testing.T) {
	store, _ := newTestStore(t)

	for _, n := range []int{0, -1, 6, 100} {
		if err := store.SetBrokerCount(n); err != ErrBrokerCountRange {
			t.Errorf("SetBrokerCount(%d) error = %v, want %v", n, err, ErrBrokerCountRange)
		}
	}

	// State untouched
	if sess := store.Snapshot(); sess.BrokerCount != 1 {
		t.Errorf("BrokerCount = %d, want 1 after rejected resizes", sess.BrokerCount)
	}
}

func TestStore_SetBrokerName_ClearsProfile(t *testing.T) {
	store, _ := newTestStore(t)

	store.SetBrokerProfile(0, &BrokerProfile{Status: "success"})
	if err := store.SetBrokerName(0, "f"); err != nil {
		t.Fatalf("SetBrokerName() error = %v", err)
	}

	sess := store.Snapshot()
	if sess.Brokers[0].Name != "f" {
		t.Errorf("broker name = %q, want %q", sess.Brokers[0].Name, "f")
	}
	if sess.Brokers[0].Profile != nil {
		t.Error("changing the broker name should clear its profile")
	}
}

func TestStore_SetStockCount_ResizesToExactly(t *testing.T) {
	for n := MinStocks; n <= MaxStocks; n++ {
		t.Run(fmt.Sprintf("count_%d", n), func(t *testing.T) {
			store, _ := newTestStore(t)

			if err := store.SetStockCount(n); err != nil {
				t.Fatalf("SetStockCount(%d) error = %v", n, err)
			}

			sess := store.Snapshot()
			if sess.StockCount != n {
				t.Errorf("StockCount = %d, want %d", sess.StockCount, n)
			}
			if len(sess.Parameters) != n {
				t.Errorf("len(Parameters) = %d, want %d", len(sess.Parameters), n)
			}
			if len(sess.Status) != n {
				t.Errorf("len(Status) = %d, want %d", len(sess.Status), n)
			}
		})
	}
}

func TestStore_SetStockCount_PreservesEntries(t *testing.T) {
	store, _ := newTestStore(t)

	store.SetStockCount(4)
	store.UpdateParameter(2, func(p *StockParameter) {
		p.Broker = "z"
		p.Lots = 3
	})
	store.SetStatus(2, StatusActive)

	store.SetStockCount(10)

	sess := store.Snapshot()
	if sess.Parameters[2].Broker != "z" || sess.Parameters[2].Lots != 3 {
		t.Error("stock 2 parameters not preserved across resize")
	}
	if sess.Status[2] != StatusActive {
		t.Errorf("stock 2 status = %q, want %q", sess.Status[2], StatusActive)
	}
	if sess.Parameters[9].SymbolValue != DefaultSymbol {
		t.Errorf("padded stock symbol = %q, want default %q", sess.Parameters[9].SymbolValue, DefaultSymbol)
	}
	if sess.Status[9] != StatusInactive {
		t.Errorf("padded stock status = %q, want %q", sess.Status[9], StatusInactive)
	}
}

func TestStore_SetStockCount_OutOfRange_ReturnsError(t *testing.T) {
	store, _ := newTestStore(t)

	for _, n := range []int{0, -3, 11, 50} {
		if err := store.SetStockCount(n); err != ErrStockCountRange {
			t.Errorf("SetStockCount(%d) error = %v, want %v", n, err, ErrStockCountRange)
		}
	}
}

func TestStore_UpdateParameter_RederivesTotalShares(t *testing.T) {
	store, _ := newTestStore(t)

	store.UpdateParameter(0, func(p *StockParameter) { p.Lots = 4 })
	if got := store.Snapshot().Parameters[0].TotalShares; got != 0 {
		t.Errorf("TotalShares with zero lot size = %d, want 0", got)
	}

	store.SetLotSize(0, 25)
	if got := store.Snapshot().Parameters[0].TotalShares; got != 100 {
		t.Errorf("TotalShares = %d, want 100", got)
	}

	// TotalShares cannot be set independently; it is re-derived
	store.UpdateParameter(0, func(p *StockParameter) { p.TotalShares = 999999 })
	if got := store.Snapshot().Parameters[0].TotalShares; got != 100 {
		t.Errorf("TotalShares after direct write = %d, want re-derived 100", got)
	}

	store.UpdateParameter(0, func(p *StockParameter) { p.Lots = 0 })
	if got := store.Snapshot().Parameters[0].TotalShares; got != 0 {
		t.Errorf("TotalShares with zero lots = %d, want 0", got)
	}
}

func TestStore_UpdateParameter_BadIndex_ReturnsError(t *testing.T) {
	store, _ := newTestStore(t)

	for _, index := range []int{-1, 1, 10} {
		err := store.UpdateParameter(index, func(p *StockParameter) {})
		if err != ErrIndexRange {
			t.Errorf("UpdateParameter(%d) error = %v, want %v", index, err, ErrIndexRange)
		}
	}
}

func TestStore_AppendLogs_PreservesArrivalOrder(t *testing.T) {
	store, _ := newTestStore(t)

	store.AppendLog("first")
	store.AppendLogs([]string{"second", "third"})
	store.AppendLog("fourth")

	want := []string{"first", "second", "third", "fourth"}
	if got := store.Logs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Logs() = %v, want %v", got, want)
	}
}

func TestStore_AppendLogs_NotifiesListenerPerLine(t *testing.T) {
	store, _ := newTestStore(t)

	var seen []string
	store.SetLogListener(func(line string) { seen = append(seen, line) })

	store.AppendLogs([]string{"one", "two"})
	store.AppendLog("three")

	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("listener saw %v, want %v", seen, want)
	}
}

func TestStore_PersistAndReload_ReproducesSession(t *testing.T) {
	kv := newMemoryKV()
	store, err := New(kv, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Build up a non-trivial session
	store.SetActiveTab(TabResults)
	store.SetBrokerCount(2)
	store.SetBrokerName(1, "z")
	store.SetCredential(1, "api_key", "k-123")
	store.SetBrokerProfile(1, &BrokerProfile{Status: "success", Details: map[string]any{"user": "Z1"}})
	store.SetStockCount(3)
	store.SetStockSymbol(1, "NSE:TCS", "TCS", "EQUITY")
	store.UpdateParameter(1, func(p *StockParameter) {
		p.Broker = "z"
		p.Lots = 2
	})
	store.SetLotSize(1, 150)
	store.SetStatus(1, StatusActive)
	store.AppendLogs([]string{"log a", "log b"})

	before := store.Snapshot()

	// Simulated process restart: a fresh store over the same KV
	reloaded, err := New(kv, nil)
	if err != nil {
		t.Fatalf("New() after restart error = %v", err)
	}
	after := reloaded.Snapshot()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("reloaded session differs:\nbefore: %+v\nafter:  %+v", before, after)
	}
	if after.Parameters[1].TotalShares != 300 {
		t.Errorf("reloaded TotalShares = %d, want 300", after.Parameters[1].TotalShares)
	}
}

func TestStore_PersistAndReload_WithEncryptor(t *testing.T) {
	enc, err := secret.NewEncryptor("this-is-a-valid-32-character-key")
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	kv := newMemoryKV()
	store, err := New(kv, enc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	store.SetCredential(0, "api_secret", "super-secret")

	// Credentials must not appear in plaintext at rest
	stored := kv.data["selectedBrokers"]
	if stored == "" {
		t.Fatal("selectedBrokers was not persisted")
	}
	if strings.Contains(stored, "super-secret") {
		t.Error("credentials stored in plaintext")
	}

	reloaded, err := New(kv, enc)
	if err != nil {
		t.Fatalf("New() after restart error = %v", err)
	}
	sess := reloaded.Snapshot()
	if sess.Brokers[0].Credentials["api_secret"] != "super-secret" {
		t.Error("encrypted credentials did not round-trip")
	}
}

func TestStore_Load_UnparsableValues_FallBackToDefaults(t *testing.T) {
	kv := newMemoryKV()
	kv.Set("activeTab", "bogus")
	kv.Set("brokerCount", "nine")
	kv.Set("stockCount", "42") // out of range
	kv.Set("tradingParameters", "{not json")
	kv.Set("tradeLogs", "also not json")

	store, err := New(kv, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sess := store.Snapshot()
	if sess.ActiveTab != TabConnect {
		t.Errorf("ActiveTab = %q, want default %q", sess.ActiveTab, TabConnect)
	}
	if sess.BrokerCount != 1 || len(sess.Brokers) != 1 {
		t.Errorf("broker state = (%d, %d entries), want defaults (1, 1)", sess.BrokerCount, len(sess.Brokers))
	}
	if sess.StockCount != 1 || len(sess.Parameters) != 1 || len(sess.Status) != 1 {
		t.Errorf("stock state = (%d, %d params, %d status), want defaults (1, 1, 1)",
			sess.StockCount, len(sess.Parameters), len(sess.Status))
	}
	if len(sess.Logs) != 0 {
		t.Errorf("Logs = %v, want empty", sess.Logs)
	}
}

func TestStore_Load_CountMismatch_NormalizesLists(t *testing.T) {
	kv := newMemoryKV()
	kv.Set("brokerCount", "3")
	kv.Set("selectedBrokers", `[{"name":"z","credentials":{},"profileData":null}]`)
	kv.Set("stockCount", "2")
	kv.Set("tradingStatus", `["active","inactive","active","active"]`)

	store, err := New(kv, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sess := store.Snapshot()
	if len(sess.Brokers) != 3 {
		t.Errorf("len(Brokers) = %d, want 3", len(sess.Brokers))
	}
	if sess.Brokers[0].Name != "z" {
		t.Errorf("broker 0 name = %q, want preserved %q", sess.Brokers[0].Name, "z")
	}
	if len(sess.Status) != 2 {
		t.Errorf("len(Status) = %d, want 2", len(sess.Status))
	}
	if sess.Status[0] != StatusActive {
		t.Errorf("status 0 = %q, want preserved %q", sess.Status[0], StatusActive)
	}
}

func TestStore_Reset_ClearsStorageAndState(t *testing.T) {
	store, kv := newTestStore(t)

	store.SetBrokerCount(4)
	store.SetStockCount(6)
	store.AppendLog("something")

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if len(kv.data) != 0 {
		t.Errorf("storage keys after Reset() = %v, want none", kv.data)
	}

	sess := store.Snapshot()
	if !reflect.DeepEqual(sess, Default()) {
		t.Errorf("session after Reset() = %+v, want defaults", sess)
	}
}
