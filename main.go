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
	"github.com/robertkozin/reel-extractor/config"
	"github.com/robertkozin/reel-extractor/extract"
	"github.com/robertkozin/reel-extractor/server"
	"github.com/robertkozin/reel-extractor/tr"
)

func main() {
	if err := run(); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	cfg.Warn(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tr.Init(ctx, "reel-extractor"); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tr.Shutdown(ctx); err != nil {
			slog.Warn("tracer shutdown", "err", err)
		}
	}()

	engine := extract.NewYtDlp(cfg.YtDlpPath)
	slog.Debug("structured engine", "engine", engine)

	resolver := extract.NewResolver(
		engine,
		cfg.Credential(),
		extract.WithJarDir(cfg.CookieJarDir),
	)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Config{
		APIToken:      cfg.APIToken,
		HasCredential: !cfg.Credential().IsZero(),
		TesterPage:    cfg.TesterPage,
	}, resolver)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
