package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/config"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	h "github.com/pbalakri/vendure-plugin-talonOne/internal/http"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/talon"
)

// identityUsers resolves the acting user id straight to the loyalty profile
// identifier. A storefront embedding this bridge as a library supplies its
// own user service instead.
type identityUsers struct{}

func (identityUsers) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id, Identifier: strconv.FormatInt(id, 10)}, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	if cfg.TalonOneURL == "" {
		logger.Warn("TALON_ONE_URL is not set, remote calls will fail")
	}

	gateway := talon.New(talon.Config{
		BaseURL:   cfg.TalonOneURL,
		APIKey:    cfg.TalonOneAPIKey,
		ProgramID: cfg.ProgramID,
	}, identityUsers{}, logger)

	loyaltyHandler := h.NewLoyaltyHandler(gateway, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(h.AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/loyalty", func(r chi.Router) {
		r.Get("/products/points", loyaltyHandler.ProductPoints)
		r.Get("/customers/points", loyaltyHandler.CustomerPoints)
		r.Post("/orders/points", loyaltyHandler.OrderPoints)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("loyalty bridge starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
}
