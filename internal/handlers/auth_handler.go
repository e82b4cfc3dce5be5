package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
)

type AuthHandler struct {
	Service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /api/auth/signup
func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Log.WithField("userID", user.ID.Hex()).Info("User signed up")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created. Please verify your email.",
		"user":    user,
	})
}

// POST /api/auth/login
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/auth/refresh-token
func (h *AuthHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var in refreshTokenRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.RefreshToken == "" {
		writeError(w, r, apperr.Unauthorized("Refresh token required."))
		return
	}
	res, err := h.Service.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/auth/logout
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var in refreshTokenRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Logout(r.Context(), in.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out.")
}

// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, apperr.Validation("Token is required."))
		return
	}
	if err := h.Service.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified.")
}

// POST /api/auth/request-password-reset
func (h *AuthHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.RequestPasswordReset(r.Context(), in.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent.")
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var in services.ResetPasswordInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.ResetPassword(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset.")
}
