package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"session-gateway/internal/audit"
	"session-gateway/internal/auth"
	"session-gateway/internal/config"
	"session-gateway/internal/gotrue"
	"session-gateway/internal/httpapi"
	"session-gateway/internal/metrics"
	"session-gateway/internal/session"
	"session-gateway/internal/subscription"
	"session-gateway/pkg/logger"
	"session-gateway/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	codec, err := auth.NewCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		var cfgErr *auth.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Error("token codec misconfigured", "key", cfgErr.Key, "err", cfgErr.Err)
		} else {
			log.Error("token codec init failed", "err", err)
		}
		os.Exit(1)
	}

	provider, err := gotrue.New(gotrue.Config{
		URL:     cfg.Supabase.URL,
		APIKey:  cfg.Supabase.AnonKey,
		Timeout: cfg.Supabase.Timeout,
	})
	if err != nil {
		log.Error("gotrue client init failed", "err", err)
		os.Exit(1)
	}

	deps := readiness{}
	var subs subscription.Repository = subscription.NewMemoryRepository()
	var auditRepo audit.Repository = audit.NewLogRepo(log)
	if cfg.HasDatabase() {
		db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.db = db
		subs = subscription.NewPostgresRepository(db)
		auditRepo = audit.NewPostgresRepo(db)
	} else {
		log.Warn("no subscription database configured, every session resolves to the free tier")
	}

	if cfg.HasRedis() && cfg.Subscription.CacheTTL > 0 {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		deps.rdb = rdb
		subs = subscription.NewCachedRepository(subs, rdb, cfg.Subscription.CacheTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewSession(reg)

	resolver := session.NewResolver(codec, provider, subscription.NewService(subs),
		session.WithRecorder(recorder),
		session.WithDefaultTTL(cfg.Auth.TokenTTL),
	)

	auditor := audit.NewService(auditRepo)

	cookies := httpapi.Cookies{
		Secure:        cfg.IsProduction(),
		RefreshMaxAge: cfg.Auth.RefreshCookieMaxAge,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.CORS(cfg.App.CORSAllowOrigin))

	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{
			Sessions:  resolver,
			Passwords: provider,
			Tokens:    codec,
			Audit:     auditor,
			Cookies:   cookies,
		},
		session:   httpapi.SessionMiddleware(resolver, cookies, auditor),
		bearer:    auth.RequireBearerToken(codec),
		metrics:   reg,
		readiness: deps,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
