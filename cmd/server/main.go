package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server"
	"github.com/dmitrijs2005/zia/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}
}
