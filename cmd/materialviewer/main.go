package main

import (
	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/app"
	"github.com/wingera/schematic-material-viewer/internal/config"
)

func main() {
	cfg := config.FromEnv()

	var logger *zap.Logger
	var err error
	if cfg.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	srv, err := app.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
