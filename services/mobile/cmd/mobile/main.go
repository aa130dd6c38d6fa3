package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"polimata/internal/labels"
	"polimata/internal/util"
	"polimata/pkg/crmclient"
	"polimata/pkg/session"
	"polimata/services/mobile/internal/app"
	"polimata/services/mobile/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	timeout, err := config.Timeout(cfg)
	if err != nil {
		log.Fatalf("failed to parse timeout: %v", err)
	}

	logger := util.InitLoggerTo(os.Stderr, cfg.LogLevel)

	crm, err := crmclient.New(crmclient.Config{BaseURL: cfg.CRMBaseURL, Timeout: timeout})
	if err != nil {
		log.Fatalf("failed to init crm client: %v", err)
	}
	store, err := session.NewFileStore(cfg.SessionPath)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}
	cli, err := app.New(app.Config{
		CRM:    crm,
		Store:  store,
		Labels: labels.New(cfg.Language),
		Out:    os.Stdout,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, app.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
