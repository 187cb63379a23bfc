package backend

import (
	"encoding/json"
	"fmt"

	"trading_console/internal/session"
)

// LoginRequest carries the operator's credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a login attempt.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// ForgotPasswordRequest asks the backend to send an OTP to the given address.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// StatusResponse is the {success, message} shape the password endpoints
// answer with.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ConnectRequest submits broker definitions for authentication.
type ConnectRequest struct {
	Brokers []session.Broker `json:"brokers"`
}

// ConnectResult is one broker's authentication outcome. The backend keys
// results by broker name rather than by position.
type ConnectResult struct {
	BrokerKey   string         `json:"broker_key"`
	Status      string         `json:"status"`
	ProfileData map[string]any `json:"profileData,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// LotSizeRequest looks up the exchange lot size for an instrument.
type LotSizeRequest struct {
	SymbolKey   string `json:"symbol_key"`
	SymbolValue string `json:"symbol_value"`
	Type        string `json:"type"`
}

// LotSizeResponse carries the exchange-defined lot size.
type LotSizeResponse struct {
	LotSize int `json:"lot_size"`
}

// DisconnectRequest tells the backend a symbol was deselected.
type DisconnectRequest struct {
	SymbolValue string `json:"symbol_value"`
}

// SymbolRequest names a single instrument for position operations.
type SymbolRequest struct {
	SymbolValue string `json:"symbol_value"`
}

// StartAllRequest submits the qualifying stock parameters together with the
// authenticated brokers they reference.
type StartAllRequest struct {
	TradingParameters []session.StockParameter `json:"tradingParameters"`
	SelectedBrokers   []session.Broker         `json:"selectedBrokers"`
}

// StartAllResponse returns the engine's startup log lines.
type StartAllResponse struct {
	Logs []string `json:"logs"`
}

// MessageResponse is the generic single-message reply several endpoints use.
type MessageResponse struct {
	Message string `json:"message"`
}

// Order is one row of the backend's order history.
type Order struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Profit float64 `json:"profit"`
	Loss   float64 `json:"loss"`
}

// OrdersResponse wraps the order history report.
type OrdersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
	Message string  `json:"message,omitempty"`
}

// ProfitLossRequest parameterizes the broker-ledger report. Dates are in
// dd-mm-yyyy form and Year is a financial year label such as "2024-25".
type ProfitLossRequest struct {
	AccessToken string `json:"access_token"`
	Segment     string `json:"segment"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	Year        string `json:"year"`
}

// BrokerTrade is one settled trade from the broker ledger.
type BrokerTrade struct {
	ScripName   string  `json:"scrip_name"`
	TradeType   string  `json:"trade_type"`
	Quantity    int     `json:"quantity"`
	BuyDate     string  `json:"buy_date"`
	BuyAverage  float64 `json:"buy_average"`
	BuyAmount   float64 `json:"buy_amount"`
	SellDate    string  `json:"sell_date"`
	SellAverage float64 `json:"sell_average"`
	SellAmount  float64 `json:"sell_amount"`
}

// ChargeRow is one row of the charges table. The broker API encodes each row
// as a two-element JSON array of [label, amount].
type ChargeRow struct {
	Label  string
	Amount float64
}

// UnmarshalJSON decodes the [label, amount] tuple form.
func (c *ChargeRow) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("charge row is not an array: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("charge row has %d elements, want 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &c.Label); err != nil {
		return fmt.Errorf("charge row label: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &c.Amount); err != nil {
		return fmt.Errorf("charge row amount: %w", err)
	}
	return nil
}

// MarshalJSON encodes the row back into tuple form.
func (c ChargeRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Label, c.Amount})
}

// ProfitLossResponse wraps the broker-ledger report: the settled trades plus
// the charges table.
type ProfitLossResponse struct {
	Success bool          `json:"success"`
	Data    []BrokerTrade `json:"data"`
	Rows    []ChargeRow   `json:"rows"`
	Message string        `json:"message,omitempty"`
}
