package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"trading_console/internal/auth"
	"trading_console/internal/backend"
	"trading_console/internal/config"
	"trading_console/internal/database"
	"trading_console/internal/handlers"
	"trading_console/internal/middleware"
	"trading_console/internal/relay"
	"trading_console/internal/repository"
	"trading_console/internal/secret"
	"trading_console/internal/services"
	"trading_console/internal/session"
	"trading_console/internal/stream"
)

// App holds the application dependencies.
type App struct {
	config         *config.Config
	db             *database.DB
	templates      TemplateCache
	router         *chi.Mux
	store          *session.Store
	client         *backend.Client
	hub            *relay.Hub
	sessionManager *auth.SessionManager
	authMiddleware *middleware.AuthMiddleware
	authHandler    *handlers.AuthHandler
	tradingHandler *handlers.TradingHandler
	reportsHandler *handlers.ReportsHandler
}

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.New()

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Broker credentials are encrypted at rest with a key derived from this
	// secret
	encryptor, err := secret.NewEncryptor(cfg.EncryptionSecret)
	if err != nil {
		log.Fatalf("Invalid ENCRYPTION_SECRET: %v", err)
	}
	if cfg.EncryptionSecret == "change-me-in-production-32chars!" && !cfg.IsDevelopment {
		log.Println("WARNING: using the default ENCRYPTION_SECRET in production")
	}

	// Parse templates
	templates, err := parseTemplates()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Restore the trading session from sqlite
	stateRepo := repository.NewStateRepository(db)
	store, err := session.New(stateRepo, encryptor)
	if err != nil {
		log.Fatalf("Failed to restore trading session: %v", err)
	}

	// Backend client
	client := backend.NewClient(cfg.BackendURL)
	log.Printf("Trading backend at %s", client.BaseURL())

	// Browser log relay; every appended log line fans out to open sockets
	hub := relay.NewHub()
	go hub.Run()
	store.SetLogListener(hub.Broadcast)

	// Live log feed from the backend
	subscription := stream.Open(
		cfg.BackendURL+"/stream-logs",
		func(line string) {
			if err := store.AppendLog(line); err != nil {
				log.Printf("[Stream] appending log line: %v", err)
			}
		},
		stream.Policy{Reconnect: cfg.StreamReconnect, Delay: cfg.StreamRetryWait},
	)
	defer subscription.Close()

	// Session manager for login cookies
	sessionManager := auth.NewSessionManager(db)
	if err := sessionManager.DeleteExpired(); err != nil {
		log.Printf("Failed to prune expired sessions: %v", err)
	}

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(sessionManager)

	// Services
	brokerService := services.NewBrokerService(store, client)
	stockService := services.NewStockService(store, client)
	resetService := services.NewResetService(client)

	// Handlers
	authHandler := handlers.NewAuthHandler(templates, client, sessionManager, store, resetService)
	tradingHandler := handlers.NewTradingHandler(templates, store, brokerService, stockService)
	reportsHandler := handlers.NewReportsHandler(templates, client)

	// Create application
	app := &App{
		config:         cfg,
		db:             db,
		templates:      templates,
		store:          store,
		client:         client,
		hub:            hub,
		sessionManager: sessionManager,
		authMiddleware: authMiddleware,
		authHandler:    authHandler,
		tradingHandler: tradingHandler,
		reportsHandler: reportsHandler,
	}

	// Setup router
	app.setupRouter()

	// Create server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://%s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	subscription.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func (app *App) setupRouter() {
	r := chi.NewRouter()

	// Chi middleware (aliased as chimw to avoid conflict with our middleware package)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Compress(5))

	// Security headers for all responses
	r.Use(middleware.SecurityHeaders)

	// Load the operator from the session cookie for all routes
	r.Use(app.authMiddleware.LoadSession)

	// Static files
	workDir, _ := os.Getwd()
	staticPath := filepath.Join(workDir, "web", "static")
	fileServer := http.FileServer(http.Dir(staticPath))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Health check
	r.Get("/health", app.handleHealth)

	// Public routes (redirect if already authenticated)
	// Rate limited to prevent brute force attacks
	r.Group(func(r chi.Router) {
		r.Use(app.authMiddleware.RedirectIfAuthenticated)
		r.Use(middleware.LimitAuth)
		r.Get("/login", app.authHandler.LoginPage)
		r.Post("/login", app.authHandler.Login)
		r.Get("/forgot-password", app.authHandler.ForgotPasswordPage)
		r.Post("/forgot-password", app.authHandler.ForgotPassword)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(app.authMiddleware.RequireSession)

		r.Get("/dashboard", app.tradingHandler.Dashboard)
		r.Post("/dashboard/tab", app.tradingHandler.SetTab)

		// Broker connect form
		r.Post("/brokers/count", app.tradingHandler.BrokerCount)
		r.Post("/brokers/{index}/name", app.tradingHandler.BrokerName)
		r.Post("/brokers/{index}/credential", app.tradingHandler.BrokerCredential)
		r.With(middleware.LimitConnect).Post("/brokers/connect", app.tradingHandler.Connect)

		// Stock select form
		r.Post("/stocks/count", app.tradingHandler.StockCount)
		r.Post("/stocks/{index}/select", app.tradingHandler.SelectStock)
		r.Post("/stocks/{index}/parameter", app.tradingHandler.Parameter)
		r.Post("/stocks/{index}/toggle", app.tradingHandler.Toggle)
		r.Post("/stocks/start-all", app.tradingHandler.StartAll)
		r.Post("/stocks/{index}/close", app.tradingHandler.ClosePosition)
		r.Post("/stocks/close-all", app.tradingHandler.CloseAll)
		r.Post("/logs/clear", app.tradingHandler.ClearLogs)

		// Reports
		r.Get("/orders", app.reportsHandler.Orders)
		r.Get("/reports/profit-loss", app.reportsHandler.ProfitLossPage)
		r.Post("/reports/profit-loss", app.reportsHandler.ProfitLoss)

		// Live log relay
		r.Get("/ws/logs", app.handleLogSocket)
	})

	// Logout (needs to be accessible when logged in)
	r.Post("/logout", app.authHandler.Logout)

	// Index route - redirect based on auth status
	r.Get("/", app.handleIndex)

	app.router = r
}

// handleHealth returns the server health status.
func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// handleIndex redirects to dashboard or login based on auth status.
func (app *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if middleware.GetEmail(r) != "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLogSocket attaches a browser to the log relay hub.
func (app *App) handleLogSocket(w http.ResponseWriter, r *http.Request) {
	relay.ServeWS(app.hub, w, r)
}

// TemplateCache holds parsed templates.
type TemplateCache map[string]*template.Template

// parseTemplates loads and parses all templates.
func parseTemplates() (TemplateCache, error) {
	cache := make(TemplateCache)

	// Template functions
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"subtract": func(a, b int) int {
			return a - b
		},
		"upper": func(s string) string {
			return strings.ToUpper(s)
		},
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}

	// Get layout path
	layoutPath := filepath.Join("web", "templates", "layouts", "base.html")

	// Get all page templates
	pagesGlob := filepath.Join("web", "templates", "pages", "*.html")
	pages, err := filepath.Glob(pagesGlob)
	if err != nil {
		return nil, err
	}

	// Parse each page with the layout
	for _, page := range pages {
		name := filepath.Base(page)

		tmpl, err := template.New(filepath.Base(layoutPath)).Funcs(funcMap).ParseFiles(layoutPath, page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}

		cache[name] = tmpl
	}

	return cache, nil
}
