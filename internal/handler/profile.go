package handler

import (
	"net/http"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/payload"
	"github.com/vasapolrittideah/user-management-api/internal/usecase"
)

// ProfileHandler exposes profile management and two-factor operations over
// HTTP. Every route requires an authenticated session.
type ProfileHandler struct {
	profileUsecase   usecase.ProfileUsecase
	twoFactorUsecase usecase.TwoFactorUsecase
	validate         *validator.Validate
	trans            ut.Translator
	logger           *zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler instance.
func NewProfileHandler(
	profileUsecase usecase.ProfileUsecase,
	twoFactorUsecase usecase.TwoFactorUsecase,
	validate *validator.Validate,
	trans ut.Translator,
	logger *zerolog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profileUsecase:   profileUsecase,
		twoFactorUsecase: twoFactorUsecase,
		validate:         validate,
		trans:            trans,
		logger:           logger,
	}
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	account, err := h.profileUsecase.UpdateProfile(
		r.Context(),
		claims.Role,
		claims.AccountID,
		usecase.UpdateProfileParams{Name: req.Name, Email: req.Email},
		requestMeta(r),
	)
	if err != nil {
		h.writeError(w, r, err, "failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string                  `json:"message"`
		User    payload.AccountResponse `json:"user"`
	}{
		Message: "Profile updated successfully",
		User:    accountResponse(account),
	})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.ChangePasswordRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	err := h.profileUsecase.ChangePassword(
		r.Context(),
		claims.Role,
		claims.AccountID,
		req.CurrentPassword,
		req.NewPassword,
		requestMeta(r),
	)
	if err != nil {
		h.writeError(w, r, err, "failed to change password")
		return
	}

	respondMessage(w, http.StatusOK, "Password changed successfully")
}

func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.DeleteAccountRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	err := h.profileUsecase.DeleteAccount(r.Context(), claims.Role, claims.AccountID, req.Password, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err, "failed to delete account")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	respondMessage(w, http.StatusOK, "Account deleted successfully")
}

func (h *ProfileHandler) EnableTwoFactor(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.EnableTwoFactorRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	setup, err := h.twoFactorUsecase.Enable(r.Context(), claims.Role, claims.AccountID, req.Password)
	if err != nil {
		h.writeError(w, r, err, "failed to start 2FA enrollment")
		return
	}

	respondJSON(w, http.StatusOK, payload.TwoFactorSetupResponse{
		Message:     "Scan the QR code with your authenticator app and verify with OTP to enable 2FA",
		Secret:      setup.Secret,
		SetupURI:    setup.SetupURI,
		QRCode:      setup.QRCode,
		BackupCodes: setup.BackupCodes,
	})
}

func (h *ProfileHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.VerifyTwoFactorRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	if err := h.twoFactorUsecase.Verify(r.Context(), claims.Role, claims.AccountID, req.OTP, requestMeta(r)); err != nil {
		h.writeError(w, r, err, "failed to verify 2FA enrollment")
		return
	}

	respondMessage(w, http.StatusOK, "2FA enabled successfully")
}

func (h *ProfileHandler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var req payload.EnableTwoFactorRequest
	if !decodeAndValidate(w, r, h.validate, h.trans, &req) {
		return
	}

	if err := h.twoFactorUsecase.Disable(r.Context(), claims.Role, claims.AccountID, req.Password, requestMeta(r)); err != nil {
		h.writeError(w, r, err, "failed to disable 2FA")
		return
	}

	respondMessage(w, http.StatusOK, "2FA disabled successfully")
}

func (h *ProfileHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized: invalid token")
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	logs, err := h.profileUsecase.ActivityLogs(r.Context(), claims.AccountID, limit)
	if err != nil {
		h.writeError(w, r, err, "failed to list activity logs")
		return
	}

	entries := make([]auditLogResponse, len(logs))
	for i, entry := range logs {
		entries[i] = auditLogEntry(entry)
	}

	respondJSON(w, http.StatusOK, struct {
		Logs  []auditLogResponse `json:"logs"`
		Count int                `json:"count"`
	}{Logs: entries, Count: len(entries)})
}

type auditLogResponse struct {
	Action    string `json:"action"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func auditLogEntry(entry model.AuditLog) auditLogResponse {
	return auditLogResponse{
		Action:    string(entry.Action),
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Details:   entry.Details,
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
	}
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	}

	respondMessage(w, status, message)
}
