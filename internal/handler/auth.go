package handler

import (
	"errors"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/payload"
	"github.com/vasapolrittideah/user-management-api/internal/usecase"
)

// AuthHandler exposes the authentication operations over HTTP.
type AuthHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	validate             *validator.Validate
	trans                ut.Translator
	logger               *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	validate *validator.Validate,
	trans ut.Translator,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		validate:             validate,
		trans:                trans,
		logger:               logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleUser
	}

	account, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	}, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err, "failed to register account")
		return
	}

	respondJSON(w, http.StatusCreated, struct {
		Message string                  `json:"message"`
		User    payload.AccountResponse `json:"user"`
	}{
		Message: "Registration successful. Please check your email for verification",
		User:    accountResponse(account),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
		OTP:      req.OTP,
	}, requestMeta(r))
	if err != nil {
		if errors.Is(err, usecase.ErrOTPRequired) {
			respondJSON(w, http.StatusBadRequest, struct {
				Message     string `json:"message"`
				Requires2FA bool   `json:"requires2FA"`
			}{
				Message:     "Two-factor code required",
				Requires2FA: true,
			})
			return
		}

		h.writeError(w, r, err, "failed to log in")
		return
	}

	h.setSessionCookie(w, result.SessionToken)

	respondJSON(w, http.StatusOK, payload.LoginResponse{
		Message: "Login successful",
		User:    accountResponse(result.Account),
		Token:   result.SessionToken,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	plainToken := r.URL.Query().Get("token")
	if plainToken == "" {
		respondMessage(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	if _, err := h.authUsecase.VerifyEmail(r.Context(), plainToken, requestMeta(r)); err != nil {
		h.writeError(w, r, err, "failed to verify email")
		return
	}

	respondMessage(w, http.StatusOK, "Email verified successfully")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	if err := h.passwordResetUsecase.ForgotPassword(r.Context(), req.Email, requestMeta(r)); err != nil {
		h.writeError(w, r, err, "failed to request password reset")
		return
	}

	// Same response whether or not the email matched an account.
	respondMessage(w, http.StatusOK, "If the email exists, a password reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	if err := h.passwordResetUsecase.ResetPassword(r.Context(), req.Token, req.Password, requestMeta(r)); err != nil {
		h.writeError(w, r, err, "failed to reset password")
		return
	}

	respondMessage(w, http.StatusOK, "Password reset successful")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	account, err := h.authUsecase.Me(r.Context(), claims)
	if err != nil {
		h.writeError(w, r, err, "failed to resolve account")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		User payload.AccountResponse `json:"user"`
	}{User: accountResponse(account)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	h.authUsecase.Logout(r.Context(), claims, requestMeta(r))
	h.clearSessionCookie(w)

	respondMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	}

	respondMessage(w, status, message)
}
