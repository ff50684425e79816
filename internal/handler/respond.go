package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/payload"
	"github.com/vasapolrittideah/user-management-api/internal/usecase"
)

type messageResponse struct {
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// decodeAndValidate binds the JSON body into dst and validates it, writing a
// 400 with translated field errors on failure.
func decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	validate *validator.Validate,
	trans ut.Translator,
	dst any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fieldErrors := make(map[string]string, len(validationErrs))
			for _, fe := range validationErrs {
				fieldErrors[fe.Field()] = fe.Translate(trans)
			}

			respondJSON(w, http.StatusBadRequest, validationErrorResponse{
				Message: "Validation error",
				Errors:  fieldErrors,
			})
			return false
		}

		respondMessage(w, http.StatusBadRequest, "Validation error")
		return false
	}

	return true
}

// statusForError maps lifecycle core errors to HTTP responses. Unknown errors
// collapse into a generic 500 so internal detail never leaks to the caller.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrAccountAlreadyExists):
		return http.StatusConflict, "Email already in use"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, usecase.ErrEmailNotVerified):
		return http.StatusForbidden, "Email not verified. Please verify your email"
	case errors.Is(err, usecase.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, usecase.ErrAccountNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, usecase.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role"
	case errors.Is(err, usecase.ErrInvalidOTP):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, usecase.ErrIncorrectPassword):
		return http.StatusBadRequest, "Incorrect password"
	case errors.Is(err, usecase.ErrTwoFactorAlreadyEnabled):
		return http.StatusBadRequest, "2FA is already enabled"
	case errors.Is(err, usecase.ErrTwoFactorNotEnabled):
		return http.StatusBadRequest, "2FA is not enabled"
	case errors.Is(err, usecase.ErrTwoFactorNotPending):
		return http.StatusBadRequest, "2FA setup not initiated. Please call enable-2fa first"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func accountResponse(account *model.Account) payload.AccountResponse {
	return payload.AccountResponse{
		ID:               account.ID.Hex(),
		Name:             account.Name,
		Email:            account.Email,
		Role:             string(account.Role),
		IsEmailVerified:  account.IsEmailVerified,
		TwoFactorEnabled: account.TwoFactorEnabled,
		LastLogin:        account.LastLogin,
		CreatedAt:        account.CreatedAt,
	}
}

func requestMeta(r *http.Request) usecase.Meta {
	return usecase.Meta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}
