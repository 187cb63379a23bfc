package handlers

import (
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"trading_console/internal/backend"
	"trading_console/internal/services"
)

// ReportsHandler handles the order history and broker profit-loss report
// pages. Both are fetch-and-render: the backend owns the data, the handler
// recomputes the headline totals on every render.
type ReportsHandler struct {
	renderer
	client *backend.Client
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(templates map[string]*template.Template, client *backend.Client) *ReportsHandler {
	return &ReportsHandler{
		renderer: renderer{templates: templates},
		client:   client,
	}
}

// Orders renders the order history, optionally filtered by a date range.
func (h *ReportsHandler) Orders(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	data := map[string]any{
		"Title": "Orders",
		"Nav":   true,
		"From":  from,
		"To":    to,
	}

	resp, err := h.client.Orders(from, to)
	if err != nil {
		log.Printf("[Reports] fetching orders: %v", err)
		data["Error"] = "Failed to fetch orders!"
		h.render(w, "orders.html", data)
		return
	}

	data["Orders"] = resp.Orders
	data["Totals"] = services.SumOrders(resp.Orders)
	h.render(w, "orders.html", data)
}

// ProfitLossPage renders the broker-ledger report form with the current
// financial year preselected.
func (h *ReportsHandler) ProfitLossPage(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	h.render(w, "profitloss.html", map[string]any{
		"Title":   "Profit / Loss",
		"Nav":     true,
		"Year":    services.FinancialYear(now),
		"Segment": "EQ",
		"To":      services.FormatReportDate(now),
	})
}

// ProfitLoss fetches and renders the broker-ledger report. A date range that
// straddles two financial years warns but still issues the request.
func (h *ReportsHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/reports/profit-loss", http.StatusSeeOther)
		return
	}

	accessToken := strings.TrimSpace(r.FormValue("access_token"))
	segment := r.FormValue("segment")
	from := r.FormValue("from_date")
	to := r.FormValue("to_date")
	year := r.FormValue("year")

	data := map[string]any{
		"Title":   "Profit / Loss",
		"Nav":     true,
		"Segment": segment,
		"From":    from,
		"To":      to,
		"Year":    year,
	}

	if accessToken == "" {
		data["Error"] = "Access token is required"
		h.render(w, "profitloss.html", data)
		return
	}

	if !services.SameFinancialYear(from, to) {
		data["Warning"] = "Selected dates span two financial years"
	}

	resp, err := h.client.ProfitLoss(backend.ProfitLossRequest{
		AccessToken: accessToken,
		Segment:     segment,
		FromDate:    from,
		ToDate:      to,
		Year:        year,
	})
	if err != nil {
		log.Printf("[Reports] fetching profit-loss: %v", err)
		data["Error"] = "Failed to fetch report"
		h.render(w, "profitloss.html", data)
		return
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = "Failed to fetch report"
		}
		data["Error"] = message
		h.render(w, "profitloss.html", data)
		return
	}

	data["Trades"] = resp.Data
	data["Charges"] = resp.Rows
	data["Totals"] = services.SumProfitLoss(resp)
	h.render(w, "profitloss.html", data)
}
