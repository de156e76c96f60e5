package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mandalnilabja/grokway/internal/app"
	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/config"
	"github.com/mandalnilabja/grokway/internal/gateway"
	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/pool"
	"github.com/mandalnilabja/grokway/internal/prepare"
	"github.com/mandalnilabja/grokway/internal/provider"
	"github.com/mandalnilabja/grokway/internal/provider/grok"
	"github.com/mandalnilabja/grokway/internal/provider/imagehost"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/tokenizer"
	"github.com/mandalnilabja/grokway/internal/translate"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/proxy"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
)

const (
	managerSessionTTL = 24 * time.Hour
	imageRetryPause   = time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("grokway stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	if err := config.EnsureConfigFile(); err != nil {
		slog.Warn("could not write default config file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	// Storage: sqlite always carries logs and the manager password; pool
	// state goes to sqlite or JSON documents.
	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := storage.OpenState(cfg.StateBackend, config.StateDir(), store)
	if err != nil {
		return err
	}

	if cfg.ManagerEnabled {
		if err := ensureManagerPassword(store, cfg.AdminPassword); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "grokway")

	cat := catalog.Default()
	credPool, err := pool.New(cat.Tiers(), state,
		pool.WithLogger(logger),
		pool.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	seedSessions(credPool, cfg.Sessions, cfg.ProSessions, logger)

	proxies, err := provider.NewProxyRotator(cfg.Proxies)
	if err != nil {
		return err
	}
	clearance := provider.NewClearance(cfg.CFClearance)

	client := grok.New(grok.Config{
		BaseURL:      cfg.BaseURL,
		AssetURL:     cfg.AssetURL,
		SignatureURL: cfg.SignatureURL,
		Timeout:      cfg.UpstreamTimeout,
		Proxies:      proxies,
		Logger:       logger,
	})

	host := imagehost.New(cfg.PicGoKey, cfg.TumyKey, nil)
	images := translate.NewImageRenderer(client, host, imageRetryPause, logger)

	preparer, err := prepare.New(client, prepare.Options{
		TempConversation:    cfg.TempConversation,
		ImageHostConfigured: host != nil,
		Logger:              logger,
	})
	if err != nil {
		return err
	}

	pacing := cfg.RetryPacing
	if pacing == 0 {
		pacing = -1
	}
	gw := gateway.New(credPool, client, preparer, gateway.Options{
		Catalog:           cat,
		Fallbacks:         cfg.Fallbacks,
		Pacing:            pacing,
		ShowThinking:      cfg.ShowThinking,
		ShowSearchResults: cfg.ShowSearchResults,
		Images:            images,
		Clearance:         clearance,
		Tokenizer:         tokenizer.New(),
		Metrics:           m,
		Logger:            logger,
	})

	apiKeyCache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedAPIKey]{
		NumCounters: 1e4,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}
	defer apiKeyCache.Close()

	sessions := auth.NewSessionStore(managerSessionTTL)

	repo := handler.NewRepo(
		admin.New(admin.Handlers{
			Pool:      credPool,
			Catalog:   cat,
			Clearance: clearance,
			Proxies:   proxies,
			Storage:   store,
			Sessions:  sessions,
			DataDir:   cfg.DataDir,
			StartTime: startTime,
			Logger:    logger,
		}),
		proxy.New(gw, cat, store, logger),
		infra.New(credPool, cat, startTime),
	)

	router := app.NewRouter(repo, &app.RouterOptions{
		APIKey:          cfg.APIKey,
		ManagerEnabled:  cfg.ManagerEnabled,
		ClientRateLimit: cfg.ClientRateLimit,
		Logger:          logger,
		APIKeyCache:     apiKeyCache,
		SessionStore:    sessions,
		Metrics:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := app.NewServer(cfg, router, logger)
	srv.OnShutdown(credPool.Stop)
	srv.OnShutdown(sessions.Stop)

	var tasks []func(context.Context) error
	if cfg.SessionFile != "" {
		sf := app.NewSessionFile(cfg.SessionFile, credPool, logger)
		if _, err := sf.Load(); err != nil {
			logger.Warn("session file not loaded", "path", cfg.SessionFile, "error", err)
		}
		tasks = append(tasks, sf.Watch)
	}

	printStartupBanner(cfg)
	return srv.Run(context.Background(), tasks...)
}
