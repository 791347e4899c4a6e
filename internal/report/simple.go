package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/gowget/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
type SimpleWriter struct {
	baseWriter

	// verbose adds the list of stored files.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeFailures(&sb, report)
	if w.verbose {
		w.writePages(&sb, report)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.MirrorReport) {
	fmt.Fprintf(sb, "Mirror of %s\n", report.BaseURL)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(sb, "  Saved to:   %s\n", report.Root)
	fmt.Fprintf(sb, "  Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(sb, "  Duration:   %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "  Status:     %s\n", statusText(report))
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *model.MirrorReport) {
	fmt.Fprintf(sb, "  Stored:     %s files (%s)\n",
		humanize.Comma(int64(len(report.Pages))), humanize.IBytes(uint64(max(report.TotalBytes(), 0))))
	fmt.Fprintf(sb, "  Skipped:    %s\n", humanize.Comma(int64(report.Skipped)))
	fmt.Fprintf(sb, "  Failed:     %s\n", humanize.Comma(int64(len(report.Failures))))
	if report.ConvertedFiles > 0 {
		fmt.Fprintf(sb, "  Converted:  %s HTML files\n", humanize.Comma(int64(report.ConvertedFiles)))
	}
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.MirrorReport) {
	if len(report.Failures) == 0 {
		return
	}
	sb.WriteString("\nFailures:\n")
	for _, f := range report.Failures {
		fmt.Fprintf(sb, "  - %s: %s\n", f.URL, failureReason(f))
	}
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.MirrorReport) {
	if len(report.Pages) == 0 {
		return
	}
	sb.WriteString("\nStored files:\n")
	for _, p := range report.Pages {
		fmt.Fprintf(sb, "  - %s (%s)\n", p.Path, humanize.IBytes(uint64(max(p.Size, 0))))
	}
}
