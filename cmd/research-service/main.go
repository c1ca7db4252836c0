// Command research-service runs the Agentic Research Core: the HTTP
// job-lifecycle API, the pipeline/orchestrated worker graph, and the
// Postgres-backed evidence and results store, wired from a single YAML
// configuration file.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/propresearch/agentic-research-core/internal/config"
	"github.com/propresearch/agentic-research-core/internal/database"
	"github.com/propresearch/agentic-research-core/pkg/adapters"
	"github.com/propresearch/agentic-research-core/pkg/adapters/llm"
	"github.com/propresearch/agentic-research-core/pkg/adapters/portalcache"
	"github.com/propresearch/agentic-research-core/pkg/evidence"
	"github.com/propresearch/agentic-research-core/pkg/httpapi"
	"github.com/propresearch/agentic-research-core/pkg/httpmetrics"
	"github.com/propresearch/agentic-research-core/pkg/model"
	"github.com/propresearch/agentic-research-core/pkg/notify"
	"github.com/propresearch/agentic-research-core/pkg/sharedlog"
	"github.com/propresearch/agentic-research-core/pkg/store"
	"github.com/propresearch/agentic-research-core/pkg/supervisor"
	"github.com/propresearch/agentic-research-core/pkg/workers"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration file")
	flag.Parse()

	logger := newLogger()

	infraLogger := newInfraLogger()
	defer infraLogger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
			Fatal("failed to load configuration")
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	applyLogLevel(logger, cfg.Logging)

	shutdownTracing := setupTracing()
	defer shutdownTracing()

	dbCfg := database.DefaultConfig()
	dbCfg.Host = cfg.Database.Host
	if port, convErr := parsePort(cfg.Database.Port); convErr == nil {
		dbCfg.Port = port
	}
	dbCfg.User = cfg.Database.User
	dbCfg.Password = cfg.Database.Password
	dbCfg.Database = cfg.Database.Database
	dbCfg.SSLMode = cfg.Database.SSLMode
	dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

	db, err := database.Connect(dbCfg, logger)
	if err != nil {
		logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
			Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(db, logger); err != nil {
		logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
			Fatal("failed to migrate database")
	}

	st := store.New(db)

	llmClient, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
			Fatal("failed to build LLM client")
	}

	deps := workers.Deps{
		Store:    st,
		Search:   buildSearchProvider(cfg.Search),
		Geocoder: buildGeocoder(cfg.Geocode),
		GIS:      buildGISAdapter(),
		LLM:      llmClient,
	}

	evidenceStore := evidence.New(st.Evidence, nil)

	notifier := buildNotifier(logger)

	sup := &supervisor.Supervisor{
		Store:         st,
		Workers:       deps,
		Evidence:      evidenceStore,
		Notifier:      notifier,
		DefaultLimits: defaultLimitsFrom(cfg.Research),
		Logger:        logger,
	}

	registry := httpmetricsRegistry()
	server := &httpapi.Server{Supervisor: sup, Logger: logger, Metrics: registry}

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	metricsSrv := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.WithField("addr", httpSrv.Addr).Info("research-service listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
				Fatal("http server failed")
		}
	}()
	go func() {
		logger.WithField("addr", metricsSrv.Addr).Info("metrics endpoint listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
				Warn("metrics server failed")
		}
	}()

	waitForShutdown(logger, httpSrv, metricsSrv)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// newInfraLogger builds the process-level zap logger; per-package structured
// fields stay on logrus.
func newInfraLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func applyLogLevel(logger *logrus.Logger, cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
}

// setupTracing installs an OpenTelemetry SDK tracer provider as the global
// provider and returns its shutdown func. The provider has no exporter, so
// spans are not exported anywhere; the orchestrator records no spans.
func setupTracing() func() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}
}

func httpmetricsRegistry() *httpmetrics.Metrics {
	return httpmetrics.NewMetrics()
}

func buildSearchProvider(cfg config.SearchConfig) adapters.SearchProvider {
	switch cfg.Provider {
	case "exa":
		return adapters.NewExaSearch(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	default:
		return nullSearchProvider{}
	}
}

func buildGeocoder(cfg config.GeocodeConfig) adapters.Geocoder {
	switch cfg.Provider {
	case "google":
		return adapters.NewHTTPGeocoder(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	default:
		return nullGeocoder{}
	}
}

const defaultGISTimeout = 15 * time.Second

func buildGISAdapter() adapters.GISAdapter {
	inner := adapters.NewHTTPGISAdapter(defaultGISTimeout, nil)

	redisAddr := os.Getenv("RESEARCH_REDIS_ADDR")
	if redisAddr == "" {
		return inner
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	return portalcache.NewCachingGISAdapter(inner, portalcache.New(rdb))
}

func buildNotifier(logger *logrus.Logger) notify.Notifier {
	token := os.Getenv("RESEARCH_SLACK_BOT_TOKEN")
	channel := os.Getenv("RESEARCH_SLACK_CHANNEL")
	if token == "" || channel == "" {
		return notify.NoopNotifier{}
	}
	return notify.NewSlackNotifier(token, channel, logger)
}

func defaultLimitsFrom(cfg config.ResearchConfig) model.Limits {
	limits := model.DefaultLimits()
	if cfg.MaxStepsDefault > 0 {
		limits.MaxSteps = cfg.MaxStepsDefault
	}
	if cfg.MaxWebCallsDefault > 0 {
		limits.MaxWebCalls = cfg.MaxWebCallsDefault
	}
	if cfg.TimeoutSecondsPerStepDefault > 0 {
		limits.TimeoutSecondsPerStep = cfg.TimeoutSecondsPerStepDefault
	}
	if cfg.MaxParallelAgentsDefault > 0 {
		limits.MaxParallelAgents = cfg.MaxParallelAgentsDefault
	}
	if cfg.DefaultMode == string(model.ModeOrchestrated) {
		limits.ExecutionMode = model.ModeOrchestrated
	}
	return limits
}

func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}

func waitForShutdown(logger *logrus.Logger, servers ...*http.Server) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down research-service")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			logger.WithFields(sharedlog.NewFields().Component("main").Error(err).ToLogrus()).
				Warn("graceful shutdown failed for a server")
		}
	}
}

// nullSearchProvider and nullGeocoder satisfy the adapter contracts with
// empty results, matching cfg.Search.Provider/cfg.Geocode.Provider's "null"
// default so the service still boots without external API keys configured.
type nullSearchProvider struct{}

func (nullSearchProvider) Search(ctx context.Context, query string, maxResults int, includeText bool) []adapters.SearchHit {
	return nil
}

type nullGeocoder struct{}

func (nullGeocoder) Autocomplete(ctx context.Context, text, country string) ([]adapters.PlaceSuggestion, error) {
	return nil, nil
}

func (nullGeocoder) Details(ctx context.Context, placeID string) (*adapters.PlaceDetails, error) {
	return nil, nil
}
