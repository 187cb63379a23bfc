package handlers

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"trading_console/internal/auth"
	"trading_console/internal/backend"
	"trading_console/internal/middleware"
	"trading_console/internal/services"
	"trading_console/internal/session"
)

// AuthHandler handles the login, logout and password reset routes. Credential
// validation is the trading backend's job; the handler only exchanges a
// successful backend login for a local cookie session.
type AuthHandler struct {
	renderer
	client         *backend.Client
	sessionManager *auth.SessionManager
	store          *session.Store
	resets         *services.ResetService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	templates map[string]*template.Template,
	client *backend.Client,
	sessionManager *auth.SessionManager,
	store *session.Store,
	resets *services.ResetService,
) *AuthHandler {
	return &AuthHandler{
		renderer:       renderer{templates: templates},
		client:         client,
		sessionManager: sessionManager,
		store:          store,
		resets:         resets,
	}
}

// LoginPage renders the login page.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", map[string]any{
		"Title": "Login",
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLoginError(w, "Email and password are required")
		return
	}

	resp, err := h.client.Login(email, password)
	if err != nil {
		log.Printf("[Auth] login request failed: %v", err)
		h.renderLoginError(w, "Error connecting to server")
		return
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = "Invalid email or password"
		}
		h.renderLoginError(w, message)
		return
	}

	login, err := h.sessionManager.Create(email)
	if err != nil {
		log.Printf("[Auth] creating session: %v", err)
		h.renderLoginError(w, "An error occurred. Please try again.")
		return
	}

	middleware.SetSessionCookie(w, login.ID, 7*24*60*60) // 7 days

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout destroys the cookie session and wipes the trading session state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.sessionManager.Destroy(cookie.Value); err != nil {
			log.Printf("[Auth] destroying session: %v", err)
		}
	}
	middleware.ClearSessionCookie(w)

	if err := h.store.Reset(); err != nil {
		log.Printf("[Auth] resetting trading session: %v", err)
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPasswordPage renders the first step of the reset flow.
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderResetFlow(w, h.resets.NewFlow())
}

// ForgotPassword advances the reset flow one step. The flow's position rides
// in hidden form fields so no server-side state outlives the request.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderResetFlow(w, h.resets.NewFlow())
		return
	}

	switch services.ResetStep(r.FormValue("step")) {
	case services.StepReset:
		flow := services.ResetFlow{
			Step:  services.StepReset,
			Email: strings.TrimSpace(r.FormValue("email")),
		}
		flow = h.resets.SubmitReset(flow, r.FormValue("otp"), r.FormValue("new_password"))
		h.renderResetFlow(w, flow)

	default:
		email := strings.TrimSpace(r.FormValue("email"))
		if email == "" {
			flow := h.resets.NewFlow()
			flow.Message = "Email is required"
			h.renderResetFlow(w, flow)
			return
		}
		h.renderResetFlow(w, h.resets.SubmitEmail(h.resets.NewFlow(), email))
	}
}

// renderResetFlow renders the forgot-password page at the flow's current
// step. A finished flow renders with a delayed redirect back to login.
func (h *AuthHandler) renderResetFlow(w http.ResponseWriter, flow services.ResetFlow) {
	h.render(w, "forgot-password.html", map[string]any{
		"Title":     "Forgot Password",
		"Step":      string(flow.Step),
		"Email":     flow.Email,
		"Message":   flow.Message,
		"Done":      flow.Done,
		"AtReset":   flow.Step == services.StepReset,
		"RedirectS": 2,
	})
}

// renderLoginError renders the login page with an error message.
func (h *AuthHandler) renderLoginError(w http.ResponseWriter, errMsg string) {
	h.render(w, "login.html", map[string]any{
		"Title": "Login",
		"Error": errMsg,
	})
}
