// Package main wires the ranked matchmaking coordinator's binary,
// grounded on the teacher's cmd/rest-api/main.go shape (slog setup,
// ContainerBuilder chain, signal-driven graceful shutdown) but
// resolving this domain's five pipeline stages instead of the
// replay/squad/tournament use cases the teacher starts.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	sessionservices "github.com/leetgaming/ranked-coordinator/pkg/domain/session/services"
	validationservices "github.com/leetgaming/ranked-coordinator/pkg/domain/validation/services"

	queueservices "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/services"

	"github.com/leetgaming/ranked-coordinator/cmd/coordinator/middlewares"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/auth"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/ioc"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/websocket"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := ioc.NewContainerBuilder().
		WithEnvFile().
		With(ioc.InjectPostgres).
		With(ioc.InjectRedis).
		With(ioc.InjectKafka).
		WithBroadcastProxy().
		WithIdentity().
		WithMatchState().
		WithQueueEngine().
		WithReadyCheck().
		WithLobby().
		WithHostSelector().
		WithValidationEngine().
		WithSessionRouter()

	c := builder.Build()

	if err := builder.Finalize(); err != nil {
		slog.Error("Failed to finalize container.", "err", err)
		panic(err)
	}

	var config common.Config
	if err := c.Resolve(&config); err != nil {
		slog.Error("Failed to resolve common.Config.", "err", err)
		panic(err)
	}

	var tickService *queueservices.TickService
	if err := c.Resolve(&tickService); err != nil {
		slog.Error("Failed to resolve *queueservices.TickService.", "err", err)
		panic(err)
	}

	var validationService *validationservices.Service
	if err := c.Resolve(&validationService); err != nil {
		slog.Error("Failed to resolve *validationservices.Service.", "err", err)
		panic(err)
	}

	var router *sessionservices.Router
	if err := c.Resolve(&router); err != nil {
		slog.Error("Failed to resolve *sessionservices.Router.", "err", err)
		panic(err)
	}

	var dispatcher *sessionservices.Dispatcher
	if err := c.Resolve(&dispatcher); err != nil {
		slog.Error("Failed to resolve *sessionservices.Dispatcher.", "err", err)
		panic(err)
	}

	var verifier *auth.Verifier
	if err := c.Resolve(&verifier); err != nil {
		slog.Error("Failed to resolve *auth.Verifier.", "err", err)
		panic(err)
	}

	go tickService.Run(ctx)
	go validationService.Run(ctx)
	go router.Run(ctx)

	httpRouter := mux.NewRouter()
	httpRouter.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	httpRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	httpRouter.HandleFunc("/ws", wsHandler(router, dispatcher, verifier))

	rateLimit := middlewares.NewRateLimitMiddleware()

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   []string{config.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})(rateLimit.Handler(httpRouter))

	server := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-shutdownChan
		slog.Info("Shutdown signal received. Waiting for Kubernetes endpoint update...")
		time.Sleep(5 * time.Second)

		router.Shutdown(ctx)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down HTTP server gracefully.", "err", err)
		}

		cancel()
	}()

	slog.Info("Starting coordinator.", "port", config.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server stopped unexpectedly.", "err", err)
		panic(err)
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func wsHandler(router *sessionservices.Router, dispatcher *sessionservices.Dispatcher, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade websocket connection.", "err", err)
			return
		}

		c := websocket.NewConn(conn)
		go c.WritePump()
		c.ReadPump(r.Context(), router, dispatcher, verifier)
	}
}
