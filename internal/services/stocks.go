package services

import (
	"fmt"
	"log"
	"strconv"

	"trading_console/internal/apperrors"
	"trading_console/internal/backend"
	"trading_console/internal/session"
)

// StockService drives the stock-select form and the per-stock trading
// operations.
type StockService struct {
	store  *session.Store
	client *backend.Client
}

// NewStockService creates a stock service.
func NewStockService(store *session.Store, client *backend.Client) *StockService {
	return &StockService{store: store, client: client}
}

// ChangeStockCount resizes the stock form to n slots.
func (s *StockService) ChangeStockCount(n int) error {
	return s.store.SetStockCount(n)
}

// SelectStock updates a slot's instrument identification and refreshes its
// lot size from the exchange lookup. A failed lookup keeps the previous lot
// size; the selection itself still sticks.
func (s *StockService) SelectStock(index int, symbolKey, symbolValue, instrumentType string) error {
	if err := s.store.SetStockSymbol(index, symbolKey, symbolValue, instrumentType); err != nil {
		return err
	}

	resp, err := s.client.LotSize(symbolKey, symbolValue, instrumentType)
	if err != nil {
		log.Printf("[Stocks] lot size lookup for %s failed: %v", symbolValue, err)
		return nil
	}
	if resp.LotSize <= 0 {
		return nil
	}
	return s.store.SetLotSize(index, resp.LotSize)
}

// ChangeParameter sets one field of a stock slot from its form value.
// Unparsable numeric input lands as zero, matching the form's behavior of
// treating a cleared field as unset.
func (s *StockService) ChangeParameter(index int, field, value string) error {
	return s.store.UpdateParameter(index, func(p *session.StockParameter) {
		switch field {
		case "broker":
			p.Broker = value
		case "strategy":
			p.Strategy = value
		case "interval":
			p.Interval = atoiOrZero(value)
		case "lots":
			p.Lots = atoiOrZero(value)
		case "lot_size":
			p.LotSize = atoiOrZero(value)
		case "target_percentage":
			p.TargetPercentage = atofOrZero(value)
		}
	})
}

// ToggleTrade flips one stock between active and inactive. Deactivation goes
// through the backend's disconnect endpoint; activation is local, requires a
// broker assignment, and jumps the dashboard to the results tab.
func (s *StockService) ToggleTrade(index int) error {
	snapshot := s.store.Snapshot()
	if index < 0 || index >= snapshot.StockCount {
		return session.ErrIndexRange
	}

	param := snapshot.Parameters[index]
	symbol := param.SymbolValue

	if snapshot.Status[index] == session.StatusActive {
		resp, err := s.client.DisconnectStock(symbol)
		if err != nil {
			log.Printf("[Stocks] disconnect %s failed: %v", symbol, err)
			return s.store.AppendLog(fmt.Sprintf("❌ Error disconnecting %s", symbol))
		}
		if err := s.store.SetStatus(index, session.StatusInactive); err != nil {
			return err
		}
		return s.store.AppendLog(fmt.Sprintf("🛑 %s", resp.Message))
	}

	if param.Broker == "" {
		return s.store.AppendLog(fmt.Sprintf("❌ Please select a broker for %s.", symbol))
	}

	if err := s.store.SetStatus(index, session.StatusActive); err != nil {
		return err
	}
	if err := s.store.AppendLog(fmt.Sprintf("🟢 Initiating trade for %s...", symbol)); err != nil {
		return err
	}
	return s.store.SetActiveTab(session.TabResults)
}

// StartAll submits every broker-assigned stock to the engine in one request.
// Slots without a broker each get an error line; when none qualify the
// request is skipped entirely. Stocks that went into the request are marked
// active once the engine answers.
func (s *StockService) StartAll() error {
	if err := s.store.SetActiveTab(session.TabResults); err != nil {
		return err
	}

	snapshot := s.store.Snapshot()

	var params []session.StockParameter
	var started []int
	for i := 0; i < snapshot.StockCount; i++ {
		if snapshot.Parameters[i].Broker != "" {
			params = append(params, snapshot.Parameters[i])
			started = append(started, i)
			continue
		}
		if err := s.store.AppendLog(fmt.Sprintf("❌ Please select a broker for Stock %d.", i+1)); err != nil {
			return err
		}
	}

	if len(params) == 0 {
		return s.store.AppendLog("⚠️ No valid stock parameters to start trades.")
	}

	if err := s.store.AppendLog("🟢 Starting all trades..."); err != nil {
		return err
	}

	resp, err := s.client.StartAllTrading(params, snapshot.Brokers)
	if err != nil {
		log.Printf("[Stocks] start all failed: %v", err)
		message := apperrors.UserMessage(err, "request failed")
		return s.store.AppendLog(fmt.Sprintf("❌ Error starting trades: %s", message))
	}

	if err := s.store.AppendLogs(resp.Logs); err != nil {
		return err
	}
	for _, i := range started {
		if err := s.store.SetStatus(i, session.StatusActive); err != nil {
			return err
		}
	}
	return nil
}

// ClosePosition asks the engine to close one stock's open position and logs
// the outcome. The trading status is left as-is.
func (s *StockService) ClosePosition(index int) error {
	snapshot := s.store.Snapshot()
	if index < 0 || index >= snapshot.StockCount {
		return session.ErrIndexRange
	}
	symbol := snapshot.Parameters[index].SymbolValue

	resp, err := s.client.ClosePosition(symbol)
	if err != nil {
		log.Printf("[Stocks] close position %s failed: %v", symbol, err)
		return s.store.AppendLog(fmt.Sprintf("❌ Error closing position for %s", symbol))
	}
	return s.store.AppendLog(fmt.Sprintf("🔵 %s", resp.Message))
}

// CloseAll asks the engine to close every open position and logs the outcome.
func (s *StockService) CloseAll() error {
	resp, err := s.client.CloseAllPositions()
	if err != nil {
		log.Printf("[Stocks] close all failed: %v", err)
		return s.store.AppendLog("❌ Error closing all positions")
	}
	return s.store.AppendLog(fmt.Sprintf("🔵 %s", resp.Message))
}

// ClearLogs wipes the log panel.
func (s *StockService) ClearLogs() error {
	return s.store.ClearLogs()
}

func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func atofOrZero(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
