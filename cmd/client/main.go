package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/healthsync/internal/buildinfo"
	"github.com/dmitrijs2005/healthsync/internal/client/cli"
	"github.com/dmitrijs2005/healthsync/internal/client/config"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()

	// The REPL owns stdout, so logs go to a rotated file.
	logFile := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	defer logFile.Close()
	logger := logging.NewText(logFile, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return err
	}

	app.Run(ctx)

	if err := app.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "shutdown", "error", err)
	}
	return nil
}
