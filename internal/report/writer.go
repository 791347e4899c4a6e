package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/gowget/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.MirrorReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.MirrorReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// NewFileWriter picks a writer from the extension of path:
// ".md" and ".markdown" get Markdown, ".json" gets JSON, anything else text.
func NewFileWriter(path string, output io.Writer) Writer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownWriter(output)
	case ".json":
		return NewJSONWriter(output, WithPrettyPrint())
	default:
		return NewSimpleWriter(output, WithVerbose(true))
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText summarizes how a run ended.
func statusText(report *model.MirrorReport) string {
	switch {
	case report.Error != "":
		return "error: " + report.Error
	case report.Canceled:
		return "canceled (partial mirror)"
	default:
		return "complete"
	}
}

// failureReason returns the reason of a failure, or "-" when there is none.
func failureReason(f model.Failure) string {
	if f.Reason != "" {
		return f.Reason
	}
	return "-"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
