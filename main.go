package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "lcatricity/internal/api/http"
	availapp "lcatricity/internal/availability/application"
	availability "lcatricity/internal/availability/domain"
	availrepo "lcatricity/internal/availability/infrastructure/postgres"
	"lcatricity/internal/audit"
	"lcatricity/internal/auth"
	"lcatricity/internal/config"
	genapp "lcatricity/internal/generation/application"
	generation "lcatricity/internal/generation/domain"
	genrepo "lcatricity/internal/generation/infrastructure/postgres"
	impactapp "lcatricity/internal/impact/application"
	impact "lcatricity/internal/impact/domain"
	impactrepo "lcatricity/internal/impact/infrastructure/postgres"
	"lcatricity/internal/observability/metrics"
	"lcatricity/internal/querycache"
	refapp "lcatricity/internal/referencedata/application"
	referencedata "lcatricity/internal/referencedata/domain"
	refrepo "lcatricity/internal/referencedata/infrastructure/postgres"
	"lcatricity/internal/storage/memory"
)

func main() {
	cfg := loadConfig()
	initLogging(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	calc, err := config.LoadCalculation()
	if err != nil {
		fatal("calculation config error", err)
	}
	ladder, err := generation.ParseLadder(calc.ResampleLadder...)
	if err != nil {
		fatal("resample ladder error", err)
	}
	conversions, err := conversionTable(calc.ConversionFactors)
	if err != nil {
		fatal("conversion factors error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		fatal("store error", err)
	}
	defer closeStores()

	refCache, err := refapp.LoadCache(ctx, stores.reference)
	if err != nil {
		fatal("reference cache load error", err)
	}
	logger.Info("reference cache loaded",
		"regions", len(refCache.Regions()),
		"generation_types", len(refCache.GenerationTypes()),
		"impact_categories", len(refCache.ImpactCategories()),
	)

	resolver, err := genapp.NewRegionResolver(stores.generation, refCache)
	if err != nil {
		fatal("region resolver error", err)
	}
	genService, err := genapp.NewService(resolver, stores.generation,
		genapp.WithLadder(ladder),
		genapp.WithRowLimit(calc.RowLimit),
		genapp.WithMaxDatapoints(calc.MaxDatapoints),
		genapp.WithLogger(logger.With("component", "generation")),
	)
	if err != nil {
		fatal("generation service error", err)
	}
	calculator, err := impactapp.NewCalculator(genService, stores.factors, refCache, conversions, calc.DefaultGenerationUnit, logger.With("component", "impact"))
	if err != nil {
		fatal("impact calculator error", err)
	}
	reporter, err := availapp.NewReporter(stores.availability, resolver, calc.Availability.DefaultMaxRows, calc.Availability.MaxRowsLimit)
	if err != nil {
		fatal("availability reporter error", err)
	}

	handlerOpts := []apihttp.Option{
		apihttp.WithLogger(logger.With("component", "http")),
		apihttp.WithAuditLogger(stores.audit),
	}
	if cfg.RedisURL != "" {
		responseCache, err := querycache.New(ctx, cfg.RedisURL, cfg.ResponseCacheTTL)
		if err != nil {
			logger.Warn("response cache disabled", "err", err)
		} else {
			defer responseCache.Close()
			handlerOpts = append(handlerOpts, apihttp.WithResponseCache(responseCache, querycache.Key))
			logger.Info("response cache enabled", "ttl", cfg.ResponseCacheTTL)
		}
	}
	apiHandler, err := apihttp.NewHandler(refCache, genService, calculator, reporter, handlerOpts...)
	if err != nil {
		fatal("api handler error", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/", "/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	if !authMiddleware.Enabled() {
		logger.Warn("AUTH_JWT_SECRET not set, authentication disabled")
	}

	mux := http.NewServeMux()
	apiHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, cfg.APIVersion)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/healthz", http.StatusFound)
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("http listening", "addr", cfg.HTTPAddr, "demo", cfg.DemoMode, "version", cfg.APIVersion)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("http server error", err)
	}
	logger.Info("http server stopped")
}

type stores struct {
	reference    referencedata.Source
	generation   generation.Store
	factors      impact.FactorStore
	availability availability.Store
	audit        audit.Logger
}

func openStores(ctx context.Context, cfg appConfig) (stores, func(), error) {
	if cfg.DemoMode {
		store, err := memory.NewDemoStore(ctx, time.Now().UTC(), cfg.DemoDays)
		if err != nil {
			return stores{}, nil, err
		}
		metrics.Init(nil, slog.Default())
		slog.Info("demo mode, serving seeded in-memory data", "days", cfg.DemoDays)
		return stores{
			reference:    store,
			generation:   store,
			factors:      store,
			availability: store,
			audit:        audit.NewSlogLogger(slog.Default().With("component", "audit")),
		}, func() {}, nil
	}

	if cfg.DatabaseURL == "" {
		return stores{}, nil, errors.New("DATABASE_URL or ELEC_LCA_DB_HOST is required unless DEMO_MODE=true")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return stores{}, nil, fmt.Errorf("db ping: %w", err)
	}

	metrics.Init(db, slog.Default())
	return stores{
		reference:    refrepo.NewRepository(db),
		generation:   genrepo.NewStore(db),
		factors:      impactrepo.NewFactorRepository(db),
		availability: availrepo.NewQuery(db),
		audit:        audit.NewRepository(db),
	}, func() { _ = db.Close() }, nil
}

func conversionTable(factors []config.ConversionFactor) (impact.ConversionTable, error) {
	table := impact.ConversionTable{}
	for _, f := range factors {
		if err := table.Add(f.From, f.To, f.Factor); err != nil {
			return nil, err
		}
	}
	return table, nil
}

type appConfig struct {
	DatabaseURL      string
	DBMaxOpenConns   int
	HTTPAddr         string
	APIVersion       string
	LogLevel         string
	LogFormat        string
	JWTSecret        string
	RedisURL         string
	ResponseCacheTTL time.Duration
	DemoMode         bool
	DemoDays         int
}

func loadConfig() appConfig {
	httpAddr := getenvDefault("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = ":" + getenvDefault("ELEC_LCA_API_PORT", "8080")
	}
	return appConfig{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", legacyDSN())),
		DBMaxOpenConns:   getenvIntDefault("DB_MAX_OPEN_CONNS", 10),
		HTTPAddr:         httpAddr,
		APIVersion:       getenvDefault("ELEC_LCA_API_VERSION", "dev"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		LogFormat:        getenvDefault("LOG_FORMAT", "text"),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", ""),
		RedisURL:         getenvDefault("REDIS_URL", ""),
		ResponseCacheTTL: getenvDuration("RESPONSE_CACHE_TTL", 10*time.Minute),
		DemoMode:         getenvBool("DEMO_MODE", false),
		DemoDays:         getenvIntDefault("DEMO_DAYS", 30),
	}
}

// legacyDSN assembles a postgres URL from the ELEC_LCA_DB_* variables.
func legacyDSN() string {
	host := os.Getenv("ELEC_LCA_DB_HOST")
	if host == "" {
		return ""
	}
	if port := os.Getenv("ELEC_LCA_DB_PORT"); port != "" {
		host = net.JoinHostPort(host, port)
	}
	dsn := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + os.Getenv("ELEC_LCA_DB_NAME"),
	}
	if user := os.Getenv("ELEC_LCA_DB_LOGIN"); user != "" {
		dsn.User = url.UserPassword(user, os.Getenv("ELEC_LCA_DB_PWD"))
	}
	return dsn.String()
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func initLogging(logLevel string, logFormat string) {
	switch logFormat {
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
		})))
	default:
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slogLevel(logLevel),
			TimeFormat: time.DateTime,
			NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
		})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

var instrumentedPaths = map[string]struct{}{
	"/list_regions":                  {},
	"/list_generation_types":         {},
	"/list_generation_type_mappings": {},
	"/list_impact_categories":        {},
	"/available_data_region":         {},
	"/datapoints_count_by_day":       {},
	"/generation":                    {},
	"/calculate":                     {},
	"/admin/response_cache/flush":    {},
	"/healthz":                       {},
	"/metrics":                       {},
}

func loggingMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)

		endpoint := "other"
		if _, ok := instrumentedPaths[r.URL.Path]; ok {
			endpoint = r.URL.Path
		}
		metrics.ObserveHTTP(endpoint, resp.status, elapsed)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "status", resp.status, "duration", elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
