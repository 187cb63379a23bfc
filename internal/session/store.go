package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"trading_console/internal/secret"
)

// Storage keys. One key per session field, written independently so a
// mutation only rewrites the field it touched.
const (
	keyActiveTab   = "activeTab"
	keyBrokerCount = "brokerCount"
	keyBrokers     = "selectedBrokers"
	keyStockCount  = "stockCount"
	keyParameters  = "tradingParameters"
	keyStatus      = "tradingStatus"
	keyLogs        = "tradeLogs"
)

var (
	// ErrBrokerCountRange is returned for broker counts outside [1,5].
	ErrBrokerCountRange = errors.New("broker count out of range")

	// ErrStockCountRange is returned for stock counts outside [1,10].
	ErrStockCountRange = errors.New("stock count out of range")

	// ErrIndexRange is returned for broker or stock indexes outside the
	// current count.
	ErrIndexRange = errors.New("index out of range")
)

// KV is the durable key-value port the store persists through.
type KV interface {
	// Get returns the value for key and whether the key was present.
	Get(key string) (string, bool, error)
	// Set writes value under key.
	Set(key, value string) error
	// Clear removes every key.
	Clear() error
}

// Store owns the live Session and its persistence. All mutation goes through
// the store; every mutator writes the changed field back to the KV port
// before returning. The log appenders additionally notify the registered log
// listener, which is how the live relay sees new lines.
type Store struct {
	mu    sync.Mutex
	kv    KV
	enc   *secret.Encryptor // nil disables credential encryption at rest
	sess  Session
	onLog func(string)
}

// New creates a Store restored from kv. A field that is absent or unparsable
// falls back to its default; the loaded session is then normalized so the
// broker and stock lists match their counts. enc, when non-nil, encrypts the
// broker list (which carries credentials) at rest.
func New(kv KV, enc *secret.Encryptor) (*Store, error) {
	s := &Store{kv: kv, enc: enc}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogListener registers fn to be called once per appended log line, in
// append order. Must be called before the stream adapter starts.
func (s *Store) SetLogListener(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLog = fn
}

// Snapshot returns a deep copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Clone()
}

// SetActiveTab switches the dashboard tab.
func (s *Store) SetActiveTab(tab Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.ActiveTab = tab
	return s.kv.Set(keyActiveTab, string(tab))
}

// SetBrokerCount resizes the broker list to n, truncating or padding with
// default entries. n must be in [MinBrokers, MaxBrokers].
func (s *Store) SetBrokerCount(n int) error {
	if n < MinBrokers || n > MaxBrokers {
		return ErrBrokerCountRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.resizeBrokers(n)
	if err := s.kv.Set(keyBrokerCount, strconv.Itoa(n)); err != nil {
		return err
	}
	return s.saveBrokers()
}

// SetBrokerName overwrites the broker name at index and clears its profile,
// forcing the connect result to be re-fetched.
func (s *Store) SetBrokerName(index int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Brokers) {
		return ErrIndexRange
	}

	s.sess.Brokers[index].Name = name
	s.sess.Brokers[index].Profile = nil
	return s.saveBrokers()
}

// SetCredential sets one credential field on the broker at index.
func (s *Store) SetCredential(index int, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Brokers) {
		return ErrIndexRange
	}

	if s.sess.Brokers[index].Credentials == nil {
		s.sess.Brokers[index].Credentials = map[string]string{}
	}
	s.sess.Brokers[index].Credentials[key] = value
	return s.saveBrokers()
}

// SetBrokerProfile records the outcome of a connect attempt for the broker at
// index.
func (s *Store) SetBrokerProfile(index int, profile *BrokerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Brokers) {
		return ErrIndexRange
	}

	s.sess.Brokers[index].Profile = profile
	return s.saveBrokers()
}

// SetStockCount resizes the stock parameter and status lists to n, keeping
// existing entries and padding with defaults. n must be in
// [MinStocks, MaxStocks].
func (s *Store) SetStockCount(n int) error {
	if n < MinStocks || n > MaxStocks {
		return ErrStockCountRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.resizeStocks(n)
	if err := s.kv.Set(keyStockCount, strconv.Itoa(n)); err != nil {
		return err
	}
	if err := s.saveParameters(); err != nil {
		return err
	}
	return s.saveStatus()
}

// SetStockSymbol updates the identification fields of the stock at index.
func (s *Store) SetStockSymbol(index int, symbolKey, symbolValue, instrumentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Parameters) {
		return ErrIndexRange
	}

	p := &s.sess.Parameters[index]
	p.SymbolKey = symbolKey
	p.SymbolValue = symbolValue
	p.InstrumentType = instrumentType
	return s.saveParameters()
}

// SetLotSize records a resolved lot-size lookup and re-derives TotalShares.
func (s *Store) SetLotSize(index, lotSize int) error {
	return s.UpdateParameter(index, func(p *StockParameter) {
		p.LotSize = lotSize
	})
}

// UpdateParameter applies mutate to the stock at index, then re-derives
// TotalShares. Every parameter change funnels through here so the derived
// field can never go stale.
func (s *Store) UpdateParameter(index int, mutate func(*StockParameter)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Parameters) {
		return ErrIndexRange
	}

	p := &s.sess.Parameters[index]
	mutate(p)
	p.TotalShares = TotalShares(p.Lots, p.LotSize)
	return s.saveParameters()
}

// SetStatus sets the trading status of the stock at index.
func (s *Store) SetStatus(index int, status TradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sess.Status) {
		return ErrIndexRange
	}

	s.sess.Status[index] = status
	return s.saveStatus()
}

// AppendLog appends one line to the log history.
func (s *Store) AppendLog(line string) error {
	return s.AppendLogs([]string{line})
}

// AppendLogs appends lines in order to the log history and notifies the log
// listener once per line.
func (s *Store) AppendLogs(lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	s.mu.Lock()
	s.sess.Logs = append(s.sess.Logs, lines...)
	err := s.saveLogs()
	fn := s.onLog
	s.mu.Unlock()

	if fn != nil {
		for _, line := range lines {
			fn(line)
		}
	}
	return err
}

// ClearLogs empties the log history.
func (s *Store) ClearLogs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess.Logs = []string{}
	return s.saveLogs()
}

// Logs returns a copy of the log history.
func (s *Store) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sess.Logs...)
}

// Reset clears every stored key and returns the session to its defaults.
// Used on logout.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(); err != nil {
		return err
	}
	s.sess = Default()
	return nil
}

// load restores the session from the KV port, field by field.
func (s *Store) load() error {
	sess := Default()

	if raw, ok, err := s.kv.Get(keyActiveTab); err != nil {
		return fmt.Errorf("loading %s: %w", keyActiveTab, err)
	} else if ok {
		switch Tab(raw) {
		case TabConnect, TabSelect, TabResults:
			sess.ActiveTab = Tab(raw)
		}
	}

	brokerCount := sess.BrokerCount
	if n, ok := s.loadCount(keyBrokerCount, MinBrokers, MaxBrokers); ok {
		brokerCount = n
	}

	if raw, ok, err := s.kv.Get(keyBrokers); err != nil {
		return fmt.Errorf("loading %s: %w", keyBrokers, err)
	} else if ok {
		if plain, err := s.openBrokers(raw); err == nil {
			var brokers []Broker
			if json.Unmarshal([]byte(plain), &brokers) == nil {
				sess.Brokers = brokers
			}
		}
	}

	stockCount := sess.StockCount
	if n, ok := s.loadCount(keyStockCount, MinStocks, MaxStocks); ok {
		stockCount = n
	}

	if raw, ok, err := s.kv.Get(keyParameters); err != nil {
		return fmt.Errorf("loading %s: %w", keyParameters, err)
	} else if ok {
		var params []StockParameter
		if json.Unmarshal([]byte(raw), &params) == nil {
			sess.Parameters = params
		}
	}

	if raw, ok, err := s.kv.Get(keyStatus); err != nil {
		return fmt.Errorf("loading %s: %w", keyStatus, err)
	} else if ok {
		var status []TradeStatus
		if json.Unmarshal([]byte(raw), &status) == nil {
			sess.Status = status
		}
	}

	if raw, ok, err := s.kv.Get(keyLogs); err != nil {
		return fmt.Errorf("loading %s: %w", keyLogs, err)
	} else if ok {
		var logs []string
		if json.Unmarshal([]byte(raw), &logs) == nil {
			sess.Logs = logs
		}
	}

	// Normalize: the lists must match their counts regardless of what was
	// stored
	sess.resizeBrokers(brokerCount)
	sess.resizeStocks(stockCount)

	s.sess = sess
	return nil
}

// loadCount reads an integer key, rejecting values outside [min, max].
func (s *Store) loadCount(key string, min, max int) (int, bool) {
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// saveBrokers persists the broker list, encrypted when an encryptor is
// configured since credentials live inside it. Callers hold the lock.
func (s *Store) saveBrokers() error {
	data, err := json.Marshal(s.sess.Brokers)
	if err != nil {
		return fmt.Errorf("marshaling brokers: %w", err)
	}

	value := string(data)
	if s.enc != nil {
		value, err = s.enc.Seal(value, keyBrokers)
		if err != nil {
			return fmt.Errorf("sealing brokers: %w", err)
		}
	}
	return s.kv.Set(keyBrokers, value)
}

// openBrokers reverses saveBrokers' encoding.
func (s *Store) openBrokers(raw string) (string, error) {
	if s.enc == nil {
		return raw, nil
	}
	return s.enc.Open(raw, keyBrokers)
}

// saveParameters persists the stock parameter list. Callers hold the lock.
func (s *Store) saveParameters() error {
	data, err := json.Marshal(s.sess.Parameters)
	if err != nil {
		return fmt.Errorf("marshaling parameters: %w", err)
	}
	return s.kv.Set(keyParameters, string(data))
}

// saveStatus persists the per-stock status list. Callers hold the lock.
func (s *Store) saveStatus() error {
	data, err := json.Marshal(s.sess.Status)
	if err != nil {
		return fmt.Errorf("marshaling status: %w", err)
	}
	return s.kv.Set(keyStatus, string(data))
}

// saveLogs persists the log history. Callers hold the lock.
func (s *Store) saveLogs() error {
	data, err := json.Marshal(s.sess.Logs)
	if err != nil {
		return fmt.Errorf("marshaling logs: %w", err)
	}
	return s.kv.Set(keyLogs, string(data))
}
