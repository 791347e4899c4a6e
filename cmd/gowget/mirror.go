package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/gowget/internal/config"
	"github.com/nao1215/gowget/internal/database"
	"github.com/nao1215/gowget/internal/mirror"
	"github.com/nao1215/gowget/internal/model"
	"github.com/nao1215/gowget/internal/pipeline"
	"github.com/nao1215/gowget/internal/report"
)

// runMirror mirrors the site behind cfg.URLs[0]. The summary is printed to
// out and, with --report, also written to the report file.
func runMirror(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	mcfg, wait, err := buildMirrorConfig(cfg)
	if err != nil {
		return err
	}

	client, err := newHTTPClient(cfg)
	if err != nil {
		return err
	}

	crawler, err := mirror.NewCrawler(mcfg,
		mirror.NewHTTPFetcher(client, mirror.WithMaxBodySize(cfg.MaxBodySize)),
		mirror.WithConcurrency(cfg.Concurrency),
		mirror.WithMaxPages(cfg.MaxPages),
		mirror.WithWait(wait),
		mirror.WithContinueOnStoreError(cfg.BestEffort),
		mirror.WithLogger(logger),
		mirror.WithOnStored(func(p model.StoredPage) {
			fmt.Fprintf(out, "Saved %s -> %s [%s]\n", p.URL, p.Path, humanize.IBytes(uint64(max(p.Size, 0))))
		}),
	)
	if err != nil {
		return err
	}

	steps := []pipeline.Step{pipeline.NewCrawlStep(crawler)}
	if mcfg.ConvertLinks {
		rewriter := mirror.NewRewriter(mcfg.Root,
			mirror.WithHost(mcfg.Domain),
			mirror.WithExistingOnly(true),
		)
		steps = append(steps, pipeline.NewConvertLinksStep(rewriter, logger))
	}

	// With --best-effort the links of a partial mirror are still converted.
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(cfg.BestEffort),
	)
	p.AddSteps(steps...)

	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		p.AddFinalStep(pipeline.NewHistoryStep(db))
	}
	p.AddFinalStep(pipeline.NewReportStep(cfg.ReportFile,
		report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)),
	))

	run := model.NewMirrorReport(mcfg.BaseURL.String())
	logger.Info("starting mirror",
		"url", mcfg.BaseURL,
		"root", mcfg.Root,
		"steps", p.StepNames(),
	)

	return p.Execute(ctx, run)
}

// buildMirrorConfig creates the crawl configuration, merging the reject and
// exclude lists and the wait of the site configuration for the target host.
// An explicit --wait wins over the configured one.
func buildMirrorConfig(cfg *config.Config) (*mirror.Config, time.Duration, error) {
	mcfg, err := mirror.NewConfig(cfg.URLs[0], cfg.DirectoryPrefix, cfg.Reject, cfg.ExcludeDirectories, cfg.ConvertLinks)
	if err != nil {
		return nil, 0, err
	}

	wait := cfg.Wait
	if cfg.SiteConfigs == nil {
		return mcfg, wait, nil
	}

	site := cfg.SiteConfigs.GetSiteConfig(mcfg.Domain)
	if wait == 0 {
		wait = site.Wait
	}
	if len(site.Reject) == 0 && len(site.Exclude) == 0 {
		return mcfg, wait, nil
	}

	mcfg, err = mirror.NewConfig(cfg.URLs[0], cfg.DirectoryPrefix,
		append(append([]string(nil), cfg.Reject...), site.Reject...),
		append(append([]string(nil), cfg.ExcludeDirectories...), site.Exclude...),
		cfg.ConvertLinks,
	)
	if err != nil {
		return nil, 0, err
	}
	return mcfg, wait, nil
}
