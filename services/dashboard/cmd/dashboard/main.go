package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"polimata/internal/labels"
	"polimata/internal/util"
	"polimata/pkg/crmclient"
	"polimata/pkg/session"
	"polimata/services/dashboard/internal/app"
	"polimata/services/dashboard/internal/config"
	"polimata/services/dashboard/internal/server"
	"polimata/services/dashboard/internal/site"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	crmTimeout, err := config.ParseDuration(cfg.CRMTimeout, 10*time.Second)
	if err != nil {
		log.Fatalf("failed to parse crm timeout: %v", err)
	}
	sessionTTL, err := config.ParseDuration(cfg.SessionTTL, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	crm, err := crmclient.New(crmclient.Config{BaseURL: cfg.CRMBaseURL, Timeout: crmTimeout})
	if err != nil {
		log.Fatalf("failed to init crm client: %v", err)
	}
	appCore, err := app.New(app.Config{
		CRM:       crm,
		Labels:    labels.New(cfg.Language),
		ListLimit: cfg.ContactListLimit,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	sessions, err := session.NewRedisStore(session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TTL:      sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}
	defer sessions.Close()
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	content, err := site.Load()
	if err != nil {
		log.Fatalf("failed to load site content: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                       appCore,
		Sessions:                  sessions,
		Content:                   content,
		RedisAddr:                 cfg.RedisAddr,
		RedisPassword:             cfg.RedisPassword,
		CookieName:                cfg.SessionCookieName,
		CookieSecure:              cfg.SessionCookieSecure,
		AllowedOrigins:            cfg.AllowedOrigins,
		TrustedProxies:            trusted,
		LoginRateLimitPerMinute:   cfg.LoginRateLimitPerMinute,
		ContactRateLimitPerMinute: cfg.ContactRateLimitPerMinute,
		ChatRateLimitPerMinute:    cfg.ChatRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer httpServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := crm.Health(pingCtx); err != nil {
		logger.Warn("crm backend not reachable at startup", "url", cfg.CRMBaseURL, "err", err)
	}
	cancel()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}()

	logger.Info("server listening", "addr", addr, "crm", cfg.CRMBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}
