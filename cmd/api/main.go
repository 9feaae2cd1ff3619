package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"qc_restaurants/internal/adapters/csvsource"
	server "qc_restaurants/internal/adapters/http_server"
	"qc_restaurants/internal/adapters/observability"
	"qc_restaurants/internal/adapters/outscraper"
	redisad "qc_restaurants/internal/adapters/redis"
	"qc_restaurants/internal/app"
	"qc_restaurants/internal/domain"
	"qc_restaurants/internal/shared"
	mysqlsrc "qc_restaurants/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	src, closeSrc := openSource(cfg)
	defer closeSrc()

	var cache domain.Cache
	if cfg.CacheEnabled() {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; batch cache disabled")
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	listings := app.NewListingService(src, cache, cfg.CacheTTL, nil).
		WithObserver(observability.ObserveBatch)

	// http
	srv := server.New(cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{L: listings})

	log.Info().Str("addr", cfg.HTTPAddr).Str("source", cfg.Source).Dur("cache_ttl", cfg.CacheTTL).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// openSource builds the configured RowSource and its cleanup.
func openSource(cfg shared.Config) (domain.RowSource, func()) {
	switch cfg.Source {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		src, err := mysqlsrc.New(db, cfg.MySQLTable)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql source")
		}
		return src, func() { _ = db.Close() }

	case shared.SourceOutscraper:
		cl, err := outscraper.New(cfg.OutscraperBase, cfg.OutscraperKey, cfg.OutscraperRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Outscraper client")
		}
		return cl.ForQuery(cfg.OutscraperQuery, cfg.OutscraperLimit), func() {}

	default:
		return csvsource.New(cfg.CSVPath), func() {}
	}
}
