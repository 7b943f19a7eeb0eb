package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"

	"github.com/onefish6223/web3-defi/internal/config"
	"github.com/onefish6223/web3-defi/internal/handler"
	"github.com/onefish6223/web3-defi/internal/logging"
	"github.com/onefish6223/web3-defi/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG")
	if configPath == "" {
		configPath = "quoted.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	engine, err := service.NewEngine(logger, cfg, nil)
	if err != nil {
		return fmt.Errorf("engine bootstrap: %w", err)
	}

	quoteService := service.NewQuoteService(logger, engine, time.Duration(cfg.QuoteCacheTTL)*time.Second)
	quoteHandler := handler.NewQuoteHandler(logger, quoteService)

	app := fiber.New()
	app.Get("/pairs", quoteHandler.Pairs())
	app.Get("/quote", quoteHandler.Quote())
	app.Get("/twap", quoteHandler.TWAP())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()
	logger.Info("quote server listening", "addr", cfg.Addr, "pairs", engine.Factory.AllPairsLength())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = app.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_ = app.Shutdown()
	<-shutdownCtx.Done()
	return nil
}
