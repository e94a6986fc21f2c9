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
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/config"
	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/mqtt"
	"github.com/Nixie-Tech-LLC/signage/internal/redis"
	"github.com/Nixie-Tech-LLC/signage/internal/refresher"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
	"github.com/Nixie-Tech-LLC/signage/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(conn)

	locker, limiter := coordination(ctx, cfg)
	notifier, closeNotifier := notifications(cfg)
	defer closeNotifier()

	devices := registration.NewService(store, locker, limiter, notifier, registration.Options{
		LicenseLimit: cfg.LicenseLimit,
		LockTimeout:  cfg.RegistrationLockTimeout,
	})

	refr := refresher.New(store, notifier, refresher.Options{
		Concurrency:  cfg.RefreshConcurrency,
		FetchTimeout: cfg.RefreshFetchTimeout,
	})
	scheduler, err := refresher.Schedule(ctx, refr, cfg.UpdateIntervalMinutes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule dynamic content refresh")
	}

	storageSystem := InitStorage(cfg)
	router := RegisterRoutes(cfg, Services{
		Store:     store,
		Devices:   devices,
		Refresher: refr,
		Weather:   weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey),
		Storage:   storageSystem,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// wait for an in-flight refresh cycle before closing the store
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// coordination picks the lock and throttle backends. Redis makes both
// shared across instances; without it they are process-local.
func coordination(ctx context.Context, cfg *config.Config) (registration.Locker, registration.Limiter) {
	if cfg.RedisAddress == "" {
		log.Warn().Msg("REDIS_ADDRESS not set, registration lock and throttle are process-local")
		return registration.NewMemoryLocker(), registration.NewMemoryLimiter(cfg.RegistrationThrottle)
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddress).Msg("redis connect")
	}
	return redis.NewLocker(rdb), redis.NewLimiter(rdb, cfg.RegistrationThrottle)
}

type notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

func notifications(cfg *config.Config) (notifier, func()) {
	if cfg.MQTTBrokerURL == "" {
		log.Info().Msg("MQTT_BROKER_URL not set, device notifications disabled")
		return mqtt.Noop{}, func() {}
	}

	pub, err := mqtt.Connect(cfg.MQTTBrokerURL, cfg.MQTTClientID)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt connect")
	}
	return pub, pub.Close
}
