package services

import (
	"fmt"
	"strings"
	"time"

	"trading_console/internal/backend"
)

// DateLayout is the dd-mm-yyyy form the backend's report endpoints use.
const DateLayout = "02-01-2006"

// OrderTotals summarizes the order history report.
type OrderTotals struct {
	Profit float64
	Loss   float64
	Net    float64
}

// SumOrders recomputes the order report totals from scratch.
func SumOrders(orders []backend.Order) OrderTotals {
	var t OrderTotals
	for _, o := range orders {
		t.Profit += o.Profit
		t.Loss += o.Loss
	}
	t.Net = t.Profit - t.Loss
	return t
}

// PLTotals summarizes the broker-ledger report: realized profit and loss from
// the settled trades, the broker's charges total, and the net after both.
type PLTotals struct {
	Profit  float64
	Loss    float64
	Charges float64
	Net     float64
}

// SumTrades buckets each trade's sell-minus-buy delta: positive deltas
// accumulate into profit, negative ones into loss as an absolute value.
func SumTrades(trades []backend.BrokerTrade) (profit, loss float64) {
	for _, trade := range trades {
		delta := trade.SellAmount - trade.BuyAmount
		if delta >= 0 {
			profit += delta
		} else {
			loss += -delta
		}
	}
	return profit, loss
}

// ChargesTotal returns the amount of the row labeled "total", matched
// case-insensitively. The broker's total row is authoritative; the other
// rows are an itemization and are never summed here.
func ChargesTotal(rows []backend.ChargeRow) float64 {
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Label), "total") {
			return row.Amount
		}
	}
	return 0
}

// SumProfitLoss combines trades and charges into the report's headline
// figures.
func SumProfitLoss(resp *backend.ProfitLossResponse) PLTotals {
	profit, loss := SumTrades(resp.Data)
	charges := ChargesTotal(resp.Rows)
	return PLTotals{
		Profit:  profit,
		Loss:    loss,
		Charges: charges,
		Net:     profit - loss - charges,
	}
}

// FinancialYear labels the Indian financial year (April to March) containing
// t, in "2024-25" form.
func FinancialYear(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// ParseReportDate parses a dd-mm-yyyy report date.
func ParseReportDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not dd-mm-yyyy: %w", s, err)
	}
	return t, nil
}

// FormatReportDate renders t in dd-mm-yyyy form.
func FormatReportDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameFinancialYear reports whether both dd-mm-yyyy dates fall in the same
// financial year. Dates that do not parse are treated as matching so the
// backend gets to reject them itself.
func SameFinancialYear(from, to string) bool {
	f, err := ParseReportDate(from)
	if err != nil {
		return true
	}
	t, err := ParseReportDate(to)
	if err != nil {
		return true
	}
	return FinancialYear(f) == FinancialYear(t)
}
