package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/configs"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/ws"
	healthHandler "github.com/Vatanesh/sbg-skribbl/internal/presentation/handler/health"
)

type Application struct {
	config        *configs.Config
	gateway       *ws.Gateway
	healthHandler *healthHandler.Handler
	logger        zerolog.Logger
}

func NewApplication(
	config *configs.Config,
	gateway *ws.Gateway,
	healthHandler *healthHandler.Handler,
	logger zerolog.Logger,
) *Application {
	return &Application{
		config:        config,
		gateway:       gateway,
		healthHandler: healthHandler,
		logger:        logger,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.enableCors)

	r.Get("/ws", app.gateway.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	return r
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info().Str("signal", s.String()).Msg("signal caught")

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info().Str("addr", srv.Addr).Msg("server has started")

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info().Str("addr", srv.Addr).Msg("server has stopped")

	return nil
}
