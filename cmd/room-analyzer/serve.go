package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Long: `Serve POST /api/analyze, GET /api/history/:user_id, GET /api/health and,
when enabled, /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, cfg, logger, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.MaxUploadBytes = cfg.Server.MaxUploadBytes
	srvCfg.ImagesDir = cfg.Storage.ImagesDir

	opts := []server.Option{server.WithHistory(a.HistoryStore())}
	if cfg.Server.Metrics {
		opts = append(opts, server.WithMetrics(a.Registry()))
	}

	srv, err := server.NewServer(a, logger.Named("http"), srvCfg, opts...)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
