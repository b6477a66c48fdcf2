package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lec-simulator/internal/api"
	"lec-simulator/internal/api/handlers"
	"lec-simulator/internal/api/middleware"
	"lec-simulator/internal/config"
	"lec-simulator/internal/logging"
	"lec-simulator/internal/simulation"
	"lec-simulator/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	log := logging.NewLogger(logging.OptionsFromEnv())

	settings, err := loadSettings(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("Failed to read settings")
	}

	// Get configuration from environment
	if settings.GetString("env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.Default()
	if path := settings.GetString("config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			log.WithError(err).WithField("path", path).Fatal("Failed to load config")
		}
		log.WithField("path", path).Info("Loaded config")
	}

	provider, err := cfg.Provider()
	if err != nil {
		log.WithError(err).Fatal("Invalid dataset config")
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		log.WithError(err).Fatal("Invalid engine config")
	}
	collector, err := telemetry.NewCollector(nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to register metrics")
	}
	opts.Logger = log
	opts.Observer = collector

	engine, err := simulation.New(provider, opts)
	if err != nil {
		log.WithError(err).Fatal("Failed to create simulation engine")
	}
	warmDataset(engine, log)

	// Initialize handlers
	simulations := handlers.NewSimulationHandler(engine, cfg.Seed, log)
	defer simulations.Close()
	limiter := middleware.NewRateLimiter(settings.GetFloat64("rate_limit_rps"), settings.GetInt("rate_limit_burst"))
	defer limiter.Close()

	router := api.NewRouter(api.Deps{
		Simulations:    simulations,
		Parameters:     handlers.NewParametersHandler(opts.Battery, opts.Tariffs, opts.Pairing, cfg.Seed),
		Datasets:       handlers.NewDatasetHandler(engine),
		Telemetry:      collector,
		Limiter:        limiter,
		Logger:         log,
		AllowedOrigins: splitList(settings.GetString("cors_origins")),
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", settings.GetString("port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.GetDuration("shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// loadSettings reads process settings from flags and API_* environment variables.
// Flags win over the environment.
func loadSettings(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("api", pflag.ContinueOnError)
	fs.String("port", "8080", "listen port")
	fs.String("env", "development", "environment (production enables gin release mode)")
	fs.String("config", "", "path to YAML simulation config")
	fs.Float64("rate-limit-rps", 5, "simulation requests per second per client (0 disables)")
	fs.Int("rate-limit-burst", 10, "simulation request burst per client")
	fs.String("cors-origins", "*", "comma-separated allowed CORS origins")
	fs.Duration("shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("api")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	return v, bindErr
}

func warmDataset(engine *simulation.Engine, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ds, err := engine.Dataset(ctx)
	if err != nil {
		log.WithError(err).Warn("Dataset not loaded at startup; requests will retry")
		return
	}
	log.WithFields(logrus.Fields{
		"households": len(ds.Households),
		"hours":      ds.Len(),
		"warnings":   len(ds.Warnings),
	}).Info("Dataset loaded")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
