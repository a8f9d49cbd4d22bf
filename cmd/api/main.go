package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"fundraiser/internal/access"
	"fundraiser/internal/adapter/repo"
	"fundraiser/internal/domain"
	"fundraiser/internal/http/handlers"
	httpapi "fundraiser/internal/http/httpapi"
	"fundraiser/internal/infra"
	"fundraiser/internal/infra/geoip"
	"fundraiser/internal/middleware"
	"fundraiser/internal/notify"
	"fundraiser/internal/registry"
	"fundraiser/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()

	journal, closeJournal, err := openJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open journal")
	}
	defer closeJournal()

	notifiers := notify.Fanout{notify.NewLog(logger)}
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if rdb != nil {
		defer rdb.Close()
		notifiers = append(notifiers, notify.NewStream(rdb, cfg.RedisStream, logger))
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	defer geo.Close()

	locales, err := middleware.NewLocales(cfg.DefaultLocale, middleware.DefaultLocales...)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid locale configuration")
	}

	svc, err := service.New(ctx, service.Options{
		Name: cfg.RegistryName,
		Limits: registry.Limits{
			MaxActiveCampaigns:   cfg.MaxActiveCampaigns,
			MaxSelectLimit:       cfg.MaxSelectLimit,
			DonationUpdatesLimit: cfg.DonationUpdatesLimit,
			AllowDuplicateIDs:    !cfg.EnforceUniqueCampaignIDs,
		},
		Auth:     access.NewOwner(cfg.OwnerSubject),
		Notifier: notifiers,
		Journal:  journal,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to restore campaign registry")
	}

	app := handlers.NewApp(svc, logger, cfg.MaxSelectLimit)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		JWTIssuer:     cfg.JWTIssuer,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		RatePerMinute: cfg.RateLimitPerMin,
		Locales:       locales,
		CountryLookup: geo.Lookup(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("journal", cfg.JournalDriver).Uint64("head", svc.Head()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// openJournal returns the configured journal and a func releasing it.
func openJournal(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.Journal, func(), error) {
	switch cfg.JournalDriver {
	case infra.JournalDriverMemory:
		logger.Warn().Msg("using in-memory journal, state is lost on restart")
		return repo.NewMemoryJournal(), func() {}, nil
	case infra.JournalDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewJournalRepository(infra.NewSQLRunner(pool, logger)), pool.Close, nil
	default:
		return nil, nil, errors.New("unsupported journal driver " + cfg.JournalDriver)
	}
}
