package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hubdesk/internal/ai"
	"hubdesk/internal/api"
	"hubdesk/internal/config"
	"hubdesk/internal/events"
	"hubdesk/internal/linkcode"
	"hubdesk/internal/metrics"
	"hubdesk/internal/notify"
	"hubdesk/internal/service"
	"hubdesk/internal/store"
	"hubdesk/internal/whatsapp"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("HUBDESK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	facilities, err := config.LoadFacilities(cfg.FacilitiesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load facilities")
	}

	if cfg.Redis.Address == "" {
		logger.Fatal().Msg("set redis.address in config")
	}

	bus := events.NewEventBus()

	st, err := store.New(cfg.Database.Path, bus)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer st.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	waClient := whatsapp.NewClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
	notifier := notify.New(waClient, st, &logger)
	bookings := service.NewBookingService(st, facilities, notifier, &logger)
	codes := linkcode.New(rdb, st, &logger)

	var suggester api.SuggestionClient
	if cfg.AI.BaseURL != "" {
		suggester = ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AITimeout())
	}

	router := mux.NewRouter()
	apiServer := api.NewServer(bookings, st, facilities, codes, suggester, bus, cfg.Admin.Token, &logger)
	apiServer.Register(router)

	webhook := whatsapp.NewWebhook(cfg.WhatsApp.VerifyToken, bookings, codes, st, waClient, &logger)
	router.HandleFunc("/webhook/whatsapp", webhook.HandleVerify).Methods(http.MethodGet)
	router.HandleFunc("/webhook/whatsapp", webhook.HandleMessage).Methods(http.MethodPost)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backup := store.NewBackupService(cfg.Database.Path, store.BackupConfig{
			Enabled:       cfg.Backup.Enabled,
			IntervalHours: cfg.Backup.IntervalHours,
			Path:          cfg.Backup.Path,
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, st, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("hubdesk started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func startHealthServer(ctx context.Context, port int, st *store.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := st.DB().PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
