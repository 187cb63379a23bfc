package backend

import (
	"fmt"
	"net/url"

	"trading_console/internal/session"
)

// Login authenticates the operator against the backend.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON("/api/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to email an OTP to the operator.
func (c *Client) ForgotPassword(email string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.postJSON("/forgot-password", ForgotPasswordRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword triggers the admin password reset for the given address.
// The endpoint takes no body; the address rides in the path.
func (c *Client) ResetPassword(email string) (*StatusResponse, error) {
	var resp StatusResponse
	path := "/api/admin/reset-password/" + url.PathEscape(email)
	if err := c.postJSON(path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConnectBrokers authenticates the given brokers and returns the per-broker
// outcomes. The backend answers with a bare array, one element per broker it
// recognized.
func (c *Client) ConnectBrokers(brokers []session.Broker) ([]ConnectResult, error) {
	var results []ConnectResult
	if err := c.postJSON("/connect-broker", ConnectRequest{Brokers: brokers}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// LotSize looks up the exchange lot size for an instrument.
func (c *Client) LotSize(symbolKey, symbolValue, instrumentType string) (*LotSizeResponse, error) {
	var resp LotSizeResponse
	req := LotSizeRequest{SymbolKey: symbolKey, SymbolValue: symbolValue, Type: instrumentType}
	if err := c.postJSON("/get-lot-size", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisconnectStock stops the engine for one symbol and returns its message.
func (c *Client) DisconnectStock(symbolValue string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.postJSON("/disconnect-stock", DisconnectRequest{SymbolValue: symbolValue}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartAllTrading submits the qualifying stock parameters to the engine and
// returns its startup log lines.
func (c *Client) StartAllTrading(parameters []session.StockParameter, brokers []session.Broker) (*StartAllResponse, error) {
	var resp StartAllResponse
	req := StartAllRequest{TradingParameters: parameters, SelectedBrokers: brokers}
	if err := c.postJSON("/start-all-trading", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClosePosition asks the engine to close the open position for one symbol.
func (c *Client) ClosePosition(symbol string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.postJSON("/close-position", SymbolRequest{SymbolValue: symbol}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CloseAllPositions asks the engine to close every open position.
func (c *Client) CloseAllPositions() (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.postJSON("/close-all-positions", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Orders fetches the order history, optionally filtered by dd-mm-yyyy
// bounds.
func (c *Client) Orders(from, to string) (*OrdersResponse, error) {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if to != "" {
		query.Set("to", to)
	}

	var resp OrdersResponse
	if err := c.getJSON("/orders", query, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Message != "" {
		return nil, fmt.Errorf("orders report: %s", resp.Message)
	}
	return &resp, nil
}

// ProfitLoss fetches the broker-ledger report for the given date range.
func (c *Client) ProfitLoss(req ProfitLossRequest) (*ProfitLossResponse, error) {
	var resp ProfitLossResponse
	if err := c.postJSON("/get_profit_loss", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
