package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validationError("invalid request body")
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if err := validateRegister(&req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), services.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{"user": user},
		"User registered successfully. Please verify your email")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if err := validateLogin(&req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	pair, user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	setAuthCookies(w, pair)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrUnauthorized)
		return
	}

	if err := s.accounts.Logout(r.Context(), user.ID); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	clearAuthCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]any{}, "Logged out successfully")
}

// handleRefreshToken accepts the refresh token from the cookie or, failing
// that, the request body.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := s.accounts.RefreshToken(r.Context(), presented)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	setAuthCookies(w, pair)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed successfully")
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if _, err := s.accounts.VerifyEmail(r.Context(), token); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"isEmailVerified": true}, "Email verified successfully")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrUnauthorized)
		return
	}

	if err := s.accounts.ResendVerification(r.Context(), user.ID); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{}, "Verification mail has been sent to your email")
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if !validEmail(req.Email) {
		s.writeError(r.Context(), w, validationError("email is invalid"))
		return
	}

	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{}, "Password reset mail has been sent to your email")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.NewPassword == "" {
		s.writeError(r.Context(), w, validationError("newPassword is required"))
		return
	}

	if err := s.accounts.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{}, "Password reset successfully")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		s.writeError(r.Context(), w, validationError("oldPassword and newPassword are required"))
		return
	}

	if err := s.accounts.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{}, "Password changed successfully")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.writeError(r.Context(), w, common.ErrUnauthorized)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"user": user}, "Current user fetched successfully")
}
