// Package httpapi exposes the account lifecycle over HTTP: chi routing,
// request shape validation, the JSON response envelope, and auth cookies.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// AccountService is the slice of the lifecycle manager the HTTP layer needs.
type AccountService interface {
	Register(ctx context.Context, params services.RegisterParams) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, *models.User, error)
	Logout(ctx context.Context, userID string) error
	RefreshToken(ctx context.Context, presented string) (*services.TokenPair, error)
	VerifyEmail(ctx context.Context, rawToken string) (*models.User, error)
	ResendVerification(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// Server serves the public auth API.
type Server struct {
	address   string
	accounts  AccountService
	logger    logging.Logger
	jwtSecret []byte
}

// NewServer constructs a Server bound to the given address.
func NewServer(address string, accounts AccountService, logger logging.Logger, secretKey string) *Server {
	return &Server{
		address:   address,
		accounts:  accounts,
		logger:    logger.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles the chi mux. Split out from Run so tests can drive the
// handlers through httptest.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh-token", s.handleRefreshToken)
		r.Get("/verify-email/{token}", s.handleVerifyEmail)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password/{token}", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/logout", s.handleLogout)
			r.Get("/current-user", s.handleCurrentUser)
			r.Post("/resend-email-verification", s.handleResendVerification)
			r.Post("/change-password", s.handleChangePassword)
		})
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "error shutting down HTTP server", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
