package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trading_console/internal/services"
	"trading_console/internal/session"
)

// TradingHandler handles the tabbed dashboard: the broker connect form, the
// stock select form and the trade results panel. Every action posts, mutates
// the session through a service, and redirects back to the dashboard.
type TradingHandler struct {
	renderer
	store   *session.Store
	brokers *services.BrokerService
	stocks  *services.StockService
}

// NewTradingHandler creates a new TradingHandler.
func NewTradingHandler(
	templates map[string]*template.Template,
	store *session.Store,
	brokers *services.BrokerService,
	stocks *services.StockService,
) *TradingHandler {
	return &TradingHandler{
		renderer: renderer{templates: templates},
		store:    store,
		brokers:  brokers,
		stocks:   stocks,
	}
}

// Dashboard renders the trading page on the session's active tab.
func (h *TradingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	h.render(w, "dashboard.html", map[string]any{
		"Title":     "Trading Console",
		"Nav":       true,
		"Session":   snap,
		"OnConnect": snap.ActiveTab == session.TabConnect,
		"OnSelect":  snap.ActiveTab == session.TabSelect,
		"OnResults": snap.ActiveTab == session.TabResults,
		"Error":     r.URL.Query().Get("error"),
	})
}

// SetTab switches the active tab.
func (h *TradingHandler) SetTab(w http.ResponseWriter, r *http.Request) {
	tab := session.Tab(r.FormValue("tab"))
	switch tab {
	case session.TabConnect, session.TabSelect, session.TabResults:
		if err := h.store.SetActiveTab(tab); err != nil {
			log.Printf("[Trading] setting tab: %v", err)
		}
	}
	h.backToDashboard(w, r, nil)
}

// BrokerCount resizes the broker form.
func (h *TradingHandler) BrokerCount(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("count"))
	if err != nil {
		h.backToDashboard(w, r, errors.New("Broker count must be a number"))
		return
	}
	h.backToDashboard(w, r, h.brokers.ChangeBrokerCount(n))
}

// BrokerName updates one broker entry's name.
func (h *TradingHandler) BrokerName(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	h.backToDashboard(w, r, h.brokers.ChangeBroker(index, r.FormValue("name")))
}

// BrokerCredential sets one credential field on one broker entry.
func (h *TradingHandler) BrokerCredential(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	key := r.FormValue("credential")
	if key == "" {
		h.backToDashboard(w, r, errors.New("Credential name is required"))
		return
	}
	h.backToDashboard(w, r, h.brokers.ChangeCredential(index, key, r.FormValue("value")))
}

// Connect submits the broker form for authentication.
func (h *TradingHandler) Connect(w http.ResponseWriter, r *http.Request) {
	h.backToDashboard(w, r, h.brokers.Connect())
}

// StockCount resizes the stock form.
func (h *TradingHandler) StockCount(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("count"))
	if err != nil {
		h.backToDashboard(w, r, errors.New("Stock count must be a number"))
		return
	}
	h.backToDashboard(w, r, h.stocks.ChangeStockCount(n))
}

// SelectStock updates a slot's instrument and refreshes its lot size.
func (h *TradingHandler) SelectStock(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	err = h.stocks.SelectStock(
		index,
		r.FormValue("symbol_key"),
		r.FormValue("symbol_value"),
		r.FormValue("type"),
	)
	h.backToDashboard(w, r, err)
}

// Parameter sets one trading parameter field on one stock slot.
func (h *TradingHandler) Parameter(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	h.backToDashboard(w, r, h.stocks.ChangeParameter(index, r.FormValue("field"), r.FormValue("value")))
}

// Toggle starts or stops trading for one stock.
func (h *TradingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	h.backToDashboard(w, r, h.stocks.ToggleTrade(index))
}

// StartAll starts trading for every broker-assigned stock.
func (h *TradingHandler) StartAll(w http.ResponseWriter, r *http.Request) {
	h.backToDashboard(w, r, h.stocks.StartAll())
}

// ClosePosition closes one stock's open position.
func (h *TradingHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	index, err := h.index(r)
	if err != nil {
		h.backToDashboard(w, r, err)
		return
	}
	h.backToDashboard(w, r, h.stocks.ClosePosition(index))
}

// CloseAll closes every open position.
func (h *TradingHandler) CloseAll(w http.ResponseWriter, r *http.Request) {
	h.backToDashboard(w, r, h.stocks.CloseAll())
}

// ClearLogs wipes the log panel.
func (h *TradingHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	h.backToDashboard(w, r, h.stocks.ClearLogs())
}

// index extracts the {index} route parameter.
func (h *TradingHandler) index(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, errors.New("Invalid index")
	}
	return index, nil
}

// backToDashboard redirects post-action. Validation problems surface as an
// alert on the dashboard; anything else was already logged or written to the
// trade log by the service.
func (h *TradingHandler) backToDashboard(w http.ResponseWriter, r *http.Request, err error) {
	target := "/dashboard"
	if err != nil {
		log.Printf("[Trading] %s: %v", r.URL.Path, err)
		target += "?error=" + url.QueryEscape(userFacing(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// userFacing maps store sentinels to alert text.
func userFacing(err error) string {
	switch {
	case errors.Is(err, session.ErrBrokerCountRange):
		return "Broker count must be between 1 and 5"
	case errors.Is(err, session.ErrStockCountRange):
		return "Stock count must be between 1 and 10"
	case errors.Is(err, session.ErrIndexRange):
		return "Invalid index"
	default:
		return err.Error()
	}
}
