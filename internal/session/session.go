// Package session holds the operator's multi-tab trading session: the active
// tab, the broker list, the per-stock trading parameters and statuses, and the
// trade log history. The session is restored from a durable key-value port on
// startup and every mutation is persisted back, one write per changed field.
package session

// Tab identifies one of the dashboard's three tabs.
type Tab string

const (
	TabConnect Tab = "connect"
	TabSelect  Tab = "select"
	TabResults Tab = "results"
)

// Count bounds for the two resizable forms.
const (
	MinBrokers = 1
	MaxBrokers = 5
	MinStocks  = 1
	MaxStocks  = 10
)

// Defaults used when a field has never been set.
const (
	DefaultBrokerName     = "u"
	DefaultSymbol         = "RELIANCE"
	DefaultStrategy       = "ADX_MACD_WillR_Supertrend"
	DefaultInstrumentType = "EQUITY"
)

// TradeStatus is the per-stock trading state.
type TradeStatus string

const (
	StatusActive   TradeStatus = "active"
	StatusInactive TradeStatus = "inactive"
)

// BrokerProfile is the outcome of a broker connect attempt. Status is
// "success" or "failed"; Details carries whatever profile fields the backend
// returned, verbatim.
type BrokerProfile struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Broker is one entry in the broker-connect form. Credentials are opaque,
// broker-specific key-value pairs; Profile is nil until a connect call
// resolves.
type Broker struct {
	Name        string            `json:"name"`
	Credentials map[string]string `json:"credentials"`
	Profile     *BrokerProfile    `json:"profileData"`
}

// StockParameter is the trading configuration for one stock slot.
// TotalShares is always derived as Lots*LotSize (0 unless both are positive)
// and is never set independently.
type StockParameter struct {
	SymbolKey        string  `json:"symbol_key"`
	SymbolValue      string  `json:"symbol_value"`
	Broker           string  `json:"broker"`
	Strategy         string  `json:"strategy"`
	Interval         int     `json:"interval"`
	Lots             int     `json:"lots"`
	LotSize          int     `json:"lot_size"`
	TotalShares      int     `json:"total_shares"`
	TargetPercentage float64 `json:"target_percentage"`
	InstrumentType   string  `json:"type"`
}

// Session is the complete dashboard state. Invariants:
// len(Brokers) == BrokerCount, and Parameters and Status each hold exactly
// one entry per stock index in [0, StockCount).
type Session struct {
	ActiveTab   Tab
	BrokerCount int
	Brokers     []Broker
	StockCount  int
	Parameters  []StockParameter
	Status      []TradeStatus
	Logs        []string
}

// TotalShares converts lots to a share quantity using the exchange lot size.
// Both inputs must be positive for the product to be meaningful.
func TotalShares(lots, lotSize int) int {
	if lots > 0 && lotSize > 0 {
		return lots * lotSize
	}
	return 0
}

// DefaultBroker returns a fresh broker-form entry.
func DefaultBroker() Broker {
	return Broker{
		Name:        DefaultBrokerName,
		Credentials: map[string]string{},
		Profile:     nil,
	}
}

// DefaultParameter returns a fresh stock slot configuration.
func DefaultParameter() StockParameter {
	return StockParameter{
		SymbolValue:    DefaultSymbol,
		Strategy:       DefaultStrategy,
		InstrumentType: DefaultInstrumentType,
	}
}

// Default returns the session a first-time visitor sees.
func Default() Session {
	return Session{
		ActiveTab:   TabConnect,
		BrokerCount: 1,
		Brokers:     []Broker{DefaultBroker()},
		StockCount:  1,
		Parameters:  []StockParameter{DefaultParameter()},
		Status:      []TradeStatus{StatusInactive},
		Logs:        []string{},
	}
}

// Clone returns a deep copy of the session, safe to hand to renderers while
// the store keeps mutating the original.
func (s Session) Clone() Session {
	out := s

	out.Brokers = make([]Broker, len(s.Brokers))
	for i, b := range s.Brokers {
		out.Brokers[i] = b.clone()
	}

	out.Parameters = append([]StockParameter(nil), s.Parameters...)
	out.Status = append([]TradeStatus(nil), s.Status...)
	out.Logs = append([]string(nil), s.Logs...)

	return out
}

func (b Broker) clone() Broker {
	out := b
	out.Credentials = make(map[string]string, len(b.Credentials))
	for k, v := range b.Credentials {
		out.Credentials[k] = v
	}
	if b.Profile != nil {
		p := *b.Profile
		if b.Profile.Details != nil {
			p.Details = make(map[string]any, len(b.Profile.Details))
			for k, v := range b.Profile.Details {
				p.Details[k] = v
			}
		}
		out.Profile = &p
	}
	return out
}

// resizeBrokers truncates or pads the broker list to n entries, preserving
// existing entries by index.
func (s *Session) resizeBrokers(n int) {
	if n < len(s.Brokers) {
		s.Brokers = s.Brokers[:n]
	}
	for len(s.Brokers) < n {
		s.Brokers = append(s.Brokers, DefaultBroker())
	}
	s.BrokerCount = n
}

// resizeStocks truncates or pads the parameter and status lists to n entries,
// preserving existing entries by index.
func (s *Session) resizeStocks(n int) {
	if n < len(s.Parameters) {
		s.Parameters = s.Parameters[:n]
	}
	for len(s.Parameters) < n {
		s.Parameters = append(s.Parameters, DefaultParameter())
	}

	if n < len(s.Status) {
		s.Status = s.Status[:n]
	}
	for len(s.Status) < n {
		s.Status = append(s.Status, StatusInactive)
	}

	s.StockCount = n
}
