package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/nao1215/gowget/internal/config"
	"github.com/nao1215/gowget/internal/download"
)

// runDownload fetches every URL into a single file, one after another.
// background is the wget-log file in background mode and nil otherwise.
func runDownload(ctx context.Context, cfg *config.Config, out, background io.Writer, logger *slog.Logger) error {
	client, err := newHTTPClient(cfg)
	if err != nil {
		return err
	}

	opts := []download.Option{
		download.WithDirectoryPrefix(cfg.DirectoryPrefix),
		download.WithOutputDocument(cfg.OutputDocument),
		download.WithRateLimit(cfg.RateLimit),
		download.WithOutput(out),
		download.WithLogger(logger),
	}
	if background != nil {
		opts = append(opts, download.WithBackground(background))
	}

	logger.Info("starting download", "urls", len(cfg.URLs), "rate_limit", cfg.RateLimit)

	_, err = download.New(client, opts...).DownloadAll(ctx, cfg.URLs)
	return err
}
