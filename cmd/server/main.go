package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/canvasser/internal/buildinfo"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/server"
	"github.com/dmitrijs2005/canvasser/internal/server/auth"
	"github.com/dmitrijs2005/canvasser/internal/server/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if cfg.IssueTokenFor != "" {
		token, err := auth.GenerateToken(cfg.IssueTokenFor, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(token)
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		stop()
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
