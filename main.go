package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/finanzas/backend/src/config"
	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/handlers"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/security"
	"github.com/username/finanzas/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Finanzas backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	dashboardCache := cache.New(5*time.Minute, 15*time.Minute)
	rateCache := cache.New(config.Cfg.CurrencyRateCacheTTL, 2*config.Cfg.CurrencyRateCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	rateService := services.NewRateService(config.Cfg.CurrencyRateURL, rateCache, config.Cfg.CurrencyRateCacheTTL)

	dashboardService := services.NewDashboardService(database.DB, dashboardCache, 5*time.Minute)
	ledgerService := services.NewLedgerService(database.DB, dashboardService)
	cardService := services.NewCardService(database.DB, rateService)
	fixedExpenseService := services.NewFixedExpenseService(database.DB, dashboardService)

	handlers.InitializeGoogleOAuthConfig()
	userHandler := handlers.NewUserHandler(authService, emailService)
	csrfHandler := handlers.NewCSRFHandler(config.Cfg.CSRFAuthKey)
	accountHandler := handlers.NewAccountHandler()
	categoryHandler := handlers.NewCategoryHandler()
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	cardHandler := handlers.NewCardHandler(cardService)
	fixedExpenseHandler := handlers.NewFixedExpenseHandler(fixedExpenseService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes
	apiRouter.HandleFunc("GET /api/auth/csrf", csrfHandler.IssueToken)
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler)
	apiRouter.HandleFunc("GET /api/auth/google/login", userHandler.HandleGoogleLogin)
	apiRouter.HandleFunc("GET /api/auth/google/callback", userHandler.HandleGoogleCallback)

	// Auth actions, CSRF-protected as a group
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	authActionRouter.HandleFunc("POST /request-password-reset", userHandler.RequestPasswordResetHandler)
	authActionRouter.HandleFunc("POST /reset-password", userHandler.ResetPasswordHandler)
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfHandler.Middleware(authActionRouter)))

	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfHandler.Middleware(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/accounts", applyCsrfAndAuth(accountHandler.HandleCreateAccount))
	apiRouter.Handle("GET /api/accounts", applyCsrfAndAuth(accountHandler.HandleListAccounts))
	apiRouter.Handle("GET /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleGetAccount))
	apiRouter.Handle("DELETE /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleDeleteAccount))

	apiRouter.Handle("POST /api/categories", applyCsrfAndAuth(categoryHandler.HandleCreateCategory))
	apiRouter.Handle("GET /api/categories", applyCsrfAndAuth(categoryHandler.HandleListCategories))
	apiRouter.Handle("GET /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleGetCategory))
	apiRouter.Handle("DELETE /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleDeleteCategory))

	apiRouter.Handle("POST /api/transactions", applyCsrfAndAuth(transactionHandler.HandleCreateTransaction))
	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(transactionHandler.HandleListTransactions))
	apiRouter.Handle("GET /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleGetTransaction))
	apiRouter.Handle("PATCH /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleUpdateTransaction))
	apiRouter.Handle("DELETE /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleDeleteTransaction))
	apiRouter.Handle("POST /api/transfers", applyCsrfAndAuth(transactionHandler.HandleCreateTransfer))

	apiRouter.Handle("POST /api/cards", applyCsrfAndAuth(cardHandler.HandleCreateCard))
	apiRouter.Handle("GET /api/cards", applyCsrfAndAuth(cardHandler.HandleListCards))
	apiRouter.Handle("GET /api/cards/{id}", applyCsrfAndAuth(cardHandler.HandleGetCard))
	apiRouter.Handle("DELETE /api/cards/{id}", applyCsrfAndAuth(cardHandler.HandleDeleteCard))
	apiRouter.Handle("POST /api/cards/{id}/expenses", applyCsrfAndAuth(cardHandler.HandleCreateCardExpense))
	apiRouter.Handle("GET /api/cards/{id}/expenses", applyCsrfAndAuth(cardHandler.HandleListCardExpenses))
	apiRouter.Handle("GET /api/cards/{id}/expenses/monthly", applyCsrfAndAuth(cardHandler.HandleMonthlyPayments))
	apiRouter.Handle("PATCH /api/cards/{id}/expenses/{expenseId}", applyCsrfAndAuth(cardHandler.HandleUpdateCardExpense))
	apiRouter.Handle("DELETE /api/cards/{id}/expenses/{expenseId}", applyCsrfAndAuth(cardHandler.HandleDeleteCardExpense))

	apiRouter.Handle("POST /api/fixed-expenses", applyCsrfAndAuth(fixedExpenseHandler.HandleCreateFixedExpense))
	apiRouter.Handle("GET /api/fixed-expenses", applyCsrfAndAuth(fixedExpenseHandler.HandleListFixedExpenses))
	apiRouter.Handle("GET /api/fixed-expenses/{id}", applyCsrfAndAuth(fixedExpenseHandler.HandleGetFixedExpense))
	apiRouter.Handle("PATCH /api/fixed-expenses/{id}", applyCsrfAndAuth(fixedExpenseHandler.HandleUpdateFixedExpense))
	apiRouter.Handle("PATCH /api/fixed-expenses/{id}/toggle", applyCsrfAndAuth(fixedExpenseHandler.HandleToggleFixedExpense))
	apiRouter.Handle("POST /api/fixed-expenses/{id}/pay", applyCsrfAndAuth(fixedExpenseHandler.HandlePayFixedExpense))
	apiRouter.Handle("DELETE /api/fixed-expenses/{id}", applyCsrfAndAuth(fixedExpenseHandler.HandleDeleteFixedExpense))

	apiRouter.Handle("GET /api/dashboard", applyCsrfAndAuth(dashboardHandler.HandleGetDashboard))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Finanzas backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
