package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/gowget/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxPageRows caps the stored file table so huge mirrors stay readable.
const maxPageRows = 500

// MarkdownWriter outputs the run summary in Markdown format,
// suitable for the --report file or a pull request comment.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFailures(md, report)
	w.writePages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MirrorReport) {
	md.H1("Mirror Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.ID + "`"},
			{"Base URL", report.BaseURL},
			{"Domain", "`" + report.Domain + "`"},
			{"Mirror Root", "`" + report.Root + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Steps", stepsText(report.PerformedSteps)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.MirrorReport) string {
	switch {
	case report.Error != "":
		return "❌ Error - " + report.Error
	case report.Canceled:
		return "⚠️ Canceled (partial mirror)"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the counters, a chart of URL outcomes and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"📄 Stored", strconv.Itoa(len(report.Pages))},
			{"⏭️ Skipped", strconv.Itoa(report.Skipped)},
			{"❌ Failed", strconv.Itoa(len(report.Failures))},
			{"🔗 Converted HTML files", strconv.Itoa(report.ConvertedFiles)},
			{"**Total size**", "**" + humanize.IBytes(uint64(max(report.TotalBytes(), 0))) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Pages)+report.Skipped+len(report.Failures) > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of URL outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.MirrorReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcomes"),
		piechart.WithShowData(true),
	)

	if n := len(report.Pages); n > 0 {
		chart.LabelAndIntValue("Stored", uint64(n))
	}
	if report.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(report.Skipped))
	}
	if n := len(report.Failures); n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing how complete the mirror is.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.MirrorReport) {
	switch {
	case report.Error != "":
		md.Cautionf("The run aborted: %s. The mirror is incomplete.", report.Error)
	case report.Canceled:
		md.Warningf("The run was canceled after %d file(s). The mirror is partial.", len(report.Pages))
	case len(report.Failures) > 0:
		md.Importantf("%d URL(s) could not be mirrored. Links to them will not work offline.", len(report.Failures))
	case len(report.Pages) == 0:
		md.Note("Nothing was stored.")
	default:
		md.Tip("Every reachable URL was mirrored.")
	}
	md.PlainText("")
}

// writeFailures writes the failed URLs.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Failures")
	md.PlainText("")

	if len(report.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Failures))
	for i, f := range report.Failures {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows[i] = []string{
			truncateString(f.URL, 80),
			status,
			truncateString(failureReason(f), 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePages writes the stored files, folded so long lists stay out of the way.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Stored Files")
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.PlainText("No files stored.")
		md.PlainText("")
		return
	}

	pages := report.Pages
	if len(pages) > maxPageRows {
		pages = pages[:maxPageRows]
	}

	rows := make([][]string, len(pages))
	for i, p := range pages {
		contentType := p.ContentType
		if contentType == "" {
			contentType = "-"
		}
		rows[i] = []string{
			"`" + p.Path + "`",
			truncateString(p.URL, 80),
			contentType,
			humanize.IBytes(uint64(max(p.Size, 0))),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "URL", "Content-Type", "Size"},
		Rows:   rows,
	})
	md.PlainText("")

	if rest := len(report.Pages) - len(pages); rest > 0 {
		md.PlainTextf("*... and %d more file(s).*", rest)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [gowget](https://github.com/nao1215/gowget)*")
}

func stepsText(steps []string) string {
	if len(steps) == 0 {
		return "-"
	}
	return strings.Join(steps, " → ")
}
