// Package services contains server-side business logic. This file implements
// AccountService, the credential and token lifecycle manager: registration,
// login/logout, refresh-token rotation, email verification, and password
// reset/change.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterParams is the shape-validated input for Register. Role defaults to
// models.RoleUser when empty.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
}

// AccountService orchestrates the account lifecycle over the credential
// store, the token codec, and the mailer. One invocation loads the rows it
// needs and persists them before returning; no state is shared across
// requests.
type AccountService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	mailer                       mail.Mailer
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	tempTokenValidityDuration    time.Duration
	baseURL                      string
	forgotPasswordRedirectURL    string
}

// NewAccountService constructs an AccountService using repositories, the
// mailer, and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, logger logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                           db,
		repos:                        m,
		mailer:                       mailer,
		logger:                       logger.With("module", "accounts"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		tempTokenValidityDuration:    cfg.TempTokenValidityDuration,
		baseURL:                      cfg.BaseURL,
		forgotPasswordRedirectURL:    cfg.ForgotPasswordRedirectURL,
	}
}

// Register creates an unverified account, stores the digest of a fresh
// verification token, and emails the raw token as a link. The raw token never
// appears in the returned account; email delivery is best-effort.
func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	repo := s.repos.Users(s.db)

	_, err := repo.GetByEmailOrUsername(ctx, params.Email, params.Username)
	if err == nil {
		return nil, common.ErrConflict
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}

	passwordHash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	raw, hash, expiry, err := auth.GenerateTemporaryToken(s.tempTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating verification token: %w", err)
	}

	user := &models.User{
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		Role:         role,
		PasswordHash: passwordHash,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repos.Users(tx)
		created, err := repoTx.Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		return repoTx.SetVerificationToken(ctx, user.ID, hash, expiry)
	}); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.mailer.SendVerificationEmail(ctx, user.Email, user.Username, s.verificationURL(raw))
	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	return user, nil
}

// Login verifies credentials and, on success, issues a token pair and stores
// the refresh token on the account. Any prior session is overwritten:
// last login wins, one active session per account.
func (s *AccountService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	if email == "" {
		return nil, nil, common.ErrValidation
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrNotFound
		}
		return nil, nil, fmt.Errorf("error fetching user: %w", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, nil, common.ErrUnauthorized
	}

	pair, err := s.issueTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, user, nil
}

// Logout clears the stored refresh token, ending the session. Calling it
// again is not an error.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	repo := s.repos.Users(s.db)
	if err := repo.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// RefreshToken validates a presented refresh token, rotates it, and returns a
// fresh pair. The swap is a compare-and-swap against the stored value, so a
// stale or replayed token always fails even while its signature is valid, and
// two concurrent refreshes cannot both succeed against the same token.
func (s *AccountService) RefreshToken(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, common.ErrUnauthorized
	}

	claims, err := auth.GetClaimsFromToken(presented, auth.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, common.ErrUnauthorized
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	pair, err := s.issueTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Stored value changed underneath us: revoked session or reuse of
			// an already-rotated token.
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	return pair, nil
}

// VerifyEmail consumes a raw verification token. Wrong and expired tokens are
// deliberately indistinguishable. The digest is cleared on success, so a
// token verifies at most once.
func (s *AccountService) VerifyEmail(ctx context.Context, rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, common.ErrValidation
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByVerificationTokenHash(ctx, auth.HashTemporaryToken(rawToken))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("error marking email verified: %w", err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpiry = nil

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return user, nil
}

// ResendVerification issues a new verification token, invalidating any prior
// unconsumed one, and emails it. Already-verified accounts get ErrConflict.
func (s *AccountService) ResendVerification(ctx context.Context, userID string) error {
	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error fetching user: %w", err)
	}

	if user.IsEmailVerified {
		return common.ErrConflict
	}

	raw, hash, expiry, err := auth.GenerateTemporaryToken(s.tempTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("error generating verification token: %w", err)
	}
	if err := repo.SetVerificationToken(ctx, user.ID, hash, expiry); err != nil {
		return fmt.Errorf("error storing verification token: %w", err)
	}

	s.mailer.SendVerificationEmail(ctx, user.Email, user.Username, s.verificationURL(raw))
	return nil
}

// ForgotPassword issues a one-time reset token for the account behind email
// and mails the reset link. The token digest and expiry are persisted before
// the mail is attempted, so a lost email can be retried.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	repo := s.repos.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error fetching user: %w", err)
	}

	raw, hash, expiry, err := auth.GenerateTemporaryToken(s.tempTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}
	if err := repo.SetResetToken(ctx, user.ID, hash, expiry); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, s.resetURL(raw))
	return nil
}

// ResetPassword consumes a raw reset token and overwrites the password. The
// reset pair is cleared in the same statement as the password write.
func (s *AccountService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return common.ErrValidation
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByResetTokenHash(ctx, auth.HashTemporaryToken(rawToken))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error fetching user: %w", err)
	}

	passwordHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, passwordHash, true); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// ChangePassword overwrites the password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error fetching user: %w", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, oldPassword) {
		return common.ErrUnauthorized
	}

	passwordHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, passwordHash, false); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// GetByID returns the account for an authenticated subject.
func (s *AccountService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

// --- helpers below ---

func (s *AccountService) issueTokenPair(userID, role string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, role, auth.AccessToken, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateToken(userID, "", auth.RefreshToken, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AccountService) verificationURL(rawToken string) string {
	return fmt.Sprintf("%s/api/v1/auth/verify-email/%s", s.baseURL, rawToken)
}

func (s *AccountService) resetURL(rawToken string) string {
	return fmt.Sprintf("%s/%s", s.forgotPasswordRedirectURL, rawToken)
}
