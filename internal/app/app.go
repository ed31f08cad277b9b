// Package app wires configuration into a running chat service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-chat/internal/analytics"
	"storefront-chat/internal/cache"
	"storefront-chat/internal/catalog"
	"storefront-chat/internal/config"
	"storefront-chat/internal/gateway"
	"storefront-chat/internal/history"
	"storefront-chat/internal/llm"
	"storefront-chat/internal/prompt"
	"storefront-chat/internal/ratelimit"
	"storefront-chat/internal/scheduler"
	"storefront-chat/internal/server"
	"storefront-chat/internal/storage"
	"storefront-chat/internal/telegram"
)

// shutdownGrace is added on top of the upstream timeout so an in-flight
// model call can finish before the listener is torn down.
const shutdownGrace = 5 * time.Second

var newTelegramBot = telegram.New

type App struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	limiter   *ratelimit.Limiter
	sessions  *history.Manager
	gateway   *gateway.Gateway
	recorder  storage.Recorder
	closer    io.Closer
	server    *server.Server
	scheduler *scheduler.Scheduler
	bot       *telegram.Bot
	now       func() time.Time
}

// New builds the service with the LLM client configured in cfg.
func New(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	client, err := llm.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	a, err := NewWithClient(cfg, client, log)
	if err != nil {
		return nil, err
	}
	if cfg.TelegramBotToken != "" {
		bot, err := newTelegramBot(cfg.TelegramBotToken, a.gateway, a.limiter, a.log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.bot = bot
	}
	return a, nil
}

// NewWithClient builds the service around an existing model client.
func NewWithClient(cfg *config.Config, client llm.Client, log logrus.FieldLogger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &App{
		cfg:      cfg,
		log:      log,
		limiter:  ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax),
		sessions: history.NewManager(cfg.HistoryMaxTurns),
		now:      time.Now,
	}

	replies, err := loadReplies(cfg.CannedRepliesPath)
	if err != nil {
		return nil, err
	}
	products := a.loadCatalog(cfg.CatalogPath)

	templateText, err := readOptional(cfg.SystemPromptPath)
	if err != nil {
		return nil, fmt.Errorf("read system prompt: %w", err)
	}
	builder, err := prompt.New(templateText, prompt.Store{Name: cfg.StoreName, Contact: cfg.FallbackContact}, a.sessions)
	if err != nil {
		return nil, err
	}

	if cfg.TranscriptPath != "" {
		rec, err := storage.NewFileRecorder(cfg.TranscriptPath)
		if err != nil {
			log.WithError(err).Warn("⚠️ transcript recording disabled")
		} else {
			a.recorder, a.closer = rec, rec
		}
	}

	a.gateway = gateway.New(gateway.Options{
		Cache:     replies,
		Sessions:  a.sessions,
		Prompts:   builder,
		Client:    client,
		Catalog:   products,
		Recorder:  a.recorder,
		Fallbacks: gateway.DefaultFallbacks(cfg.FallbackContact),
		Timeout:   cfg.UpstreamTimeout,
		Logger:    log,
	})

	a.server = server.New(server.Options{
		Addr:           cfg.HTTPAddr,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.FrontendOrigins,
		TrustProxy:     cfg.TrustProxy,
		WriteTimeout:   cfg.UpstreamTimeout + 15*time.Second,
	}, a.gateway, a.limiter, a.recorder, log)

	a.scheduler = scheduler.New(log)
	if err := a.scheduleJobs(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.scheduler.Start()
	defer a.scheduler.Stop()
	defer a.Close()

	if a.bot != nil {
		go a.bot.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	a.log.Info("🛑 shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer stop()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the transcript file. Run calls it on the way out.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) shutdownTimeout() time.Duration {
	return a.cfg.UpstreamTimeout + shutdownGrace
}

func (a *App) scheduleJobs() error {
	if err := a.scheduler.Every("limiter-sweep", a.limiter.Window(), func() {
		if n := a.limiter.Sweep(); n > 0 {
			a.log.WithField("keys", n).Debug("rate limiter swept")
		}
	}); err != nil {
		return err
	}

	if a.cfg.SessionIdleTTL > 0 {
		interval := a.cfg.SessionSweepInterval
		if interval <= 0 {
			interval = a.cfg.SessionIdleTTL
		}
		if err := a.scheduler.Every("session-sweep", interval, func() {
			if n := a.sessions.SweepIdle(a.cfg.SessionIdleTTL); n > 0 {
				a.log.WithField("sessions", n).Info("🧹 idle sessions dropped")
			}
		}); err != nil {
			return err
		}
	}

	if a.recorder != nil && a.cfg.DailyReportCron != "" {
		if err := a.scheduler.Cron("daily-report", a.cfg.DailyReportCron, a.dailyReport); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) dailyReport(_ context.Context) error {
	events, err := a.recorder.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, a.now().UTC())
	a.log.WithFields(logrus.Fields{
		"date":     stats.Date,
		"messages": stats.TotalMessages,
	}).Info("📊 daily report\n" + stats.GenerateReportSummary())
	return nil
}

// loadCatalog tolerates a missing file so the assistant can run without products.
func (a *App) loadCatalog(path string) []catalog.Product {
	if path == "" {
		return nil
	}
	products, err := catalog.Load(path)
	if err != nil {
		a.log.WithError(err).Warn("⚠️ catalog unavailable, replies will not mention products")
		return nil
	}
	a.log.WithField("products", len(products)).Info("catalog loaded")
	return products
}

func loadReplies(path string) (*cache.Cache, error) {
	if path == "" {
		return cache.New(cache.DefaultEntries), nil
	}
	c, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
