package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/nao1215/gowget/internal/mirror"
	"github.com/nao1215/gowget/internal/model"
	"github.com/nao1215/gowget/internal/report"
)

// Step names as they appear in MirrorReport.PerformedSteps.
const (
	StepCrawl         = "crawl"
	StepConvertLinks  = "convert_links"
	StepRecordHistory = "record_history"
	StepWriteReport   = "write_report"
)

// SiteCrawler fills a report by mirroring a site. *mirror.Crawler implements it.
type SiteCrawler interface {
	Crawl(ctx context.Context, report *model.MirrorReport) error
}

// LinkConverter rewrites links in a finished mirror. *mirror.Rewriter implements it.
type LinkConverter interface {
	Rewrite(ctx context.Context) (mirror.RewriteStats, error)
}

// RunRecorder persists a finished run. *database.HistoryDB implements it.
type RunRecorder interface {
	SaveRun(ctx context.Context, report *model.MirrorReport) error
}

// CrawlStep mirrors the site into the mirror root.
type CrawlStep struct {
	crawler SiteCrawler
}

// NewCrawlStep creates the crawl step.
func NewCrawlStep(crawler SiteCrawler) *CrawlStep {
	return &CrawlStep{crawler: crawler}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do executes the crawl.
func (s *CrawlStep) Do(ctx context.Context, mr *model.MirrorReport) error {
	return s.crawler.Crawl(ctx, mr)
}

// ConvertLinksStep makes the stored HTML browsable offline.
type ConvertLinksStep struct {
	converter LinkConverter
	logger    *slog.Logger
}

// NewConvertLinksStep creates the link conversion step.
func NewConvertLinksStep(converter LinkConverter, logger *slog.Logger) *ConvertLinksStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertLinksStep{converter: converter, logger: logger}
}

// Name returns the step name.
func (s *ConvertLinksStep) Name() string {
	return StepConvertLinks
}

// Do rewrites the mirror tree and records how many files changed.
func (s *ConvertLinksStep) Do(ctx context.Context, mr *model.MirrorReport) error {
	stats, err := s.converter.Rewrite(ctx)
	mr.ConvertedFiles += stats.FilesChanged
	if err != nil {
		return fmt.Errorf("convert links: %w", err)
	}

	s.logger.Info("links converted",
		"scanned", stats.FilesScanned,
		"changed", stats.FilesChanged,
		"links", stats.LinksRewritten,
	)
	return nil
}

// HistoryStep records the run in the history database.
type HistoryStep struct {
	recorder RunRecorder
}

// NewHistoryStep creates the history step.
func NewHistoryStep(recorder RunRecorder) *HistoryStep {
	return &HistoryStep{recorder: recorder}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return StepRecordHistory
}

// Do saves the report. The step name is added to PerformedSteps first so
// the stored report lists it as well.
func (s *HistoryStep) Do(ctx context.Context, mr *model.MirrorReport) error {
	saved := *mr
	saved.PerformedSteps = append(append([]string(nil), mr.PerformedSteps...), StepRecordHistory)
	if err := s.recorder.SaveRun(ctx, &saved); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// ReportStep writes the run summary to the console writers and, when a
// path is set, to a file whose format follows its extension (see
// report.NewFileWriter).
type ReportStep struct {
	path    string
	console []report.Writer
}

// NewReportStep creates the report step. path may be empty when the
// summary only goes to the console writers.
func NewReportStep(path string, console ...report.Writer) *ReportStep {
	return &ReportStep{path: path, console: console}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return StepWriteReport
}

// Do writes the summary, replacing an existing report file. The console
// writers still get the summary when the file cannot be created.
func (s *ReportStep) Do(_ context.Context, mr *model.MirrorReport) error {
	writers := slices.Clone(s.console)

	var f *os.File
	var openErr error
	if s.path != "" {
		f, openErr = createReportFile(s.path)
		if openErr == nil {
			writers = append(writers, report.NewFileWriter(s.path, f))
		}
	}

	_, err := report.NewMultiWriter(writers...).Write(mr)
	if f != nil {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			return fmt.Errorf("close report file: %w", closeErr)
		}
	}
	if openErr != nil {
		return openErr
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // report path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}
