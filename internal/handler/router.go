package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/user-management-api/internal/auth"
	"github.com/vasapolrittideah/user-management-api/internal/usecase"
)

// NewRouter wires the lifecycle operations onto the HTTP boundary.
func NewRouter(
	logger *zerolog.Logger,
	jwtAuth auth.JWTAuthenticator,
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	profileUsecase usecase.ProfileUsecase,
	twoFactorUsecase usecase.TwoFactorUsecase,
) (chi.Router, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, err
	}

	authHandler := NewAuthHandler(authUsecase, passwordResetUsecase, validate, trans, logger)
	profileHandler := NewProfileHandler(profileUsecase, twoFactorUsecase, validate, trans, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/verify-email", authHandler.VerifyEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(jwtAuth))
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Route("/api/profile", func(r chi.Router) {
		r.Use(Authenticate(jwtAuth))
		r.Put("/update", profileHandler.UpdateProfile)
		r.Put("/change-password", profileHandler.ChangePassword)
		r.Delete("/delete-account", profileHandler.DeleteAccount)
		r.Post("/enable-2fa", profileHandler.EnableTwoFactor)
		r.Post("/verify-2fa", profileHandler.VerifyTwoFactor)
		r.Post("/disable-2fa", profileHandler.DisableTwoFactor)
		r.Get("/activity-logs", profileHandler.ActivityLogs)
	})

	return r, nil
}
