package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/user-management-api/internal/audit"
	"github.com/vasapolrittideah/user-management-api/internal/auth"
	"github.com/vasapolrittideah/user-management-api/internal/config"
	"github.com/vasapolrittideah/user-management-api/internal/handler"
	"github.com/vasapolrittideah/user-management-api/internal/mailer"
	"github.com/vasapolrittideah/user-management-api/internal/otp"
	"github.com/vasapolrittideah/user-management-api/internal/registry"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
	"github.com/vasapolrittideah/user-management-api/internal/usecase"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second

	emailQueueCapacity = 64
	auditQueueCapacity = 256
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.New(&logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := client.Database(cfg.MongoDatabase)
	accountRepo := repository.NewAccountMongoRepository(connectCtx, &logger, db)
	auditRepo := repository.NewAuditLogMongoRepository(connectCtx, &logger, db)

	dispatcher := mailer.NewDispatcher(&logger, mailer.NewMailer(&logger), emailQueueCapacity)
	defer dispatcher.Close()

	recorder := audit.NewRecorder(&logger, auditRepo, auditQueueCapacity)
	defer recorder.Close()

	jwtAuth := auth.NewJWTAuthenticator(
		cfg.Token.Secret,
		cfg.Token.Issuer,
		cfg.Token.Issuer,
		cfg.Token.SessionTokenExpiresIn,
	)
	otpService := otp.NewService(cfg.TwoFactorIssuer)

	authUsecase := usecase.NewAuthUsecase(accountRepo, jwtAuth, otpService, dispatcher, recorder, cfg)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(accountRepo, dispatcher, recorder, cfg)
	profileUsecase := usecase.NewProfileUsecase(accountRepo, auditRepo, recorder)
	twoFactorUsecase := usecase.NewTwoFactorUsecase(accountRepo, otpService, recorder)

	router, err := handler.NewRouter(
		&logger,
		jwtAuth,
		authUsecase,
		passwordResetUsecase,
		profileUsecase,
		twoFactorUsecase,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build router")
	}

	if cfg.ConsulAddr != "" {
		registration, err := registry.Register(&logger, cfg.ConsulAddr, cfg.ServiceName, cfg.HTTPAddr, cfg.AppURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to register with consul")
		}
		defer registration.Deregister()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down server gracefully")
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("server stopped")
}
