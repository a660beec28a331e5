package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notable/notable/client"
	"notable/notable/config"
	"notable/notable/controllers"
	"notable/notable/events"
	"notable/notable/routes"
	"notable/notable/services/llm"
	"notable/notable/services/notecache"
	"notable/notable/services/notes"
	"notable/notable/services/summarize"
	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/sources/memory"
	"notable/notable/sources/psql"
	"notable/notable/sources/storage"
	"notable/notable/sources/supabase"
	"notable/notable/utils/logging"
	"notable/notable/utils/metrics"
	"notable/notable/views"

	"go.uber.org/zap"
)

const cacheTTL = 30 * time.Second

// backend is the store and identity provider picked by STORE_DRIVER.
type backend struct {
	opener sources.Opener
	auth   sources.Authenticator
	health map[string]controllers.Pinger
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case "supabase":
		sc := supabase.Config{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey}
		return &backend{opener: supabase.NewNoteStore(sc), auth: supabase.NewAuth(sc), close: func() {}}, nil
	case "postgres":
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			opener: psql.NewNoteStore(db),
			auth:   psql.NewAuth(db),
			health: map[string]controllers.Pinger{"database": db},
			close:  db.Close,
		}, nil
	case "memory":
		auth, err := memory.NewAuthFromList(cfg.DevUsers)
		if err != nil {
			return nil, err
		}
		logging.AppLogger.Warn("using the in-memory store; notes are lost on restart")
		return &backend{opener: memory.NewStore(), auth: auth, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("store init error", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		os.Exit(1)
	}
	defer be.close()

	m := metrics.NewCollector("notable")
	bus := events.NewBus(64)
	cache := notecache.New(be.opener, bus, cacheTTL)

	provider, err := llm.NewProvider(cfg, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		logging.ErrorLogger.Error("llm provider error", zap.Error(err))
		os.Exit(1)
	}
	prompts, err := summarize.LoadPrompts(cfg.SummarizePrompts)
	if err != nil {
		logging.ErrorLogger.Error("summarize prompts error", zap.String("path", cfg.SummarizePrompts), zap.Error(err))
		os.Exit(1)
	}
	if cfg.LLMModel != "" {
		prompts.Model = cfg.LLMModel
	}
	proxy := summarize.NewProxy(provider, prompts, m)

	// The note pages summarize through the local provider unless another
	// instance's /api/summarize is configured.
	var summarizer notes.Summarizer = proxy
	if cfg.SummarizeURL != "" {
		summarizer = client.New(cfg.SummarizeURL, "", nil)
	}
	svc := notes.NewService(cache, summarizer, bus, m)

	var archive controllers.Archiver
	if cfg.ArchiveEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		archive = minioClient
	}

	renderer, err := views.New()
	if err != nil {
		logging.ErrorLogger.Error("templates error", zap.Error(err))
		os.Exit(1)
	}

	providers := cfg.OAuthProviders
	if cfg.StoreDriver != "supabase" {
		providers = nil
	}
	r := routes.NewRouter(routes.Deps{
		BaseURL:        cfg.BaseURL,
		CORSOrigins:    cfg.CORSOrigins,
		OAuthProviders: providers,
		Sessions:       session.NewManager(cfg.SessionSecret, cfg.Secure()),
		Auth:           be.auth,
		Notes:          svc,
		Summarizer:     proxy,
		Archive:        archive,
		Bus:            bus,
		Views:          renderer,
		Metrics:        m,
		Health:         be.health,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", cfg.Addr),
			zap.String("driver", cfg.StoreDriver),
			zap.String("llm", proxy.Provider()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	hits, misses := cache.Stats()
	logging.AppLogger.Info("server shutdown complete", zap.Uint64("cache_hits", hits), zap.Uint64("cache_misses", misses))
}
