package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/gowget/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.MirrorReport {
	report := model.NewMirrorReport("https://ex.com/")
	report.Domain = "ex.com"
	report.Root = "ex.com"
	report.StartedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(1500 * time.Millisecond)
	report.AddPage(model.StoredPage{
		URL: "https://ex.com/", Path: "ex.com/index.html", Size: 2048,
		ContentType: "text/html", StatusCode: 200,
	})
	report.AddPage(model.StoredPage{
		URL: "https://ex.com/a.css", Path: "ex.com/a.css", Size: 1024,
		ContentType: "text/css", StatusCode: 200,
	})
	report.AddFailure(model.Failure{
		URL: "https://ex.com/gone", StatusCode: 404, Reason: "fetch https://ex.com/gone: 404 Not Found",
	})
	report.Skipped = 3
	report.ConvertedFiles = 1
	report.PerformedSteps = []string{"crawl", "convert_links"}
	return report
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"Mirror of https://ex.com/",
			"Saved to:   ex.com",
			"Duration:   1.5s",
			"Status:     complete",
			"Stored:     2 files (3.0 KiB)",
			"Skipped:    3",
			"Failed:     1",
			"Converted:  1 HTML files",
			"- https://ex.com/gone: fetch https://ex.com/gone: 404 Not Found",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Stored files:") {
			t.Error("stored file list should only appear in verbose mode")
		}
	})

	t.Run("verbose lists stored files", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "- ex.com/a.css (1.0 KiB)") {
			t.Errorf("expected stored file in output:\n%s", buf.String())
		}
	})

	t.Run("canceled and error status", func(t *testing.T) {
		t.Parallel()

		canceled := createTestReport()
		canceled.Canceled = true
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(canceled); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "canceled (partial mirror)") {
			t.Errorf("expected canceled status:\n%s", buf.String())
		}

		failed := createTestReport()
		failed.Error = "disk full"
		buf.Reset()
		if _, err := NewSimpleWriter(&buf).Write(failed); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "error: disk full") {
			t.Errorf("expected error status:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables chart and alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Mirror Report",
			"`" + report.ID + "`",
			"crawl → convert_links",
			"## Summary",
			"```mermaid",
			"URL Outcomes",
			"[!IMPORTANT]",
			"## Failures",
			"404",
			"## Stored Files",
			"`ex.com/a.css`",
			"gowget",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(model.NewMirrorReport("https://ex.com/")); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("no chart expected for an empty run")
		}
		for _, want := range []string{"No failures.", "No files stored.", "[!NOTE]"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("long page lists are cut", func(t *testing.T) {
		t.Parallel()

		report := model.NewMirrorReport("https://ex.com/")
		for range maxPageRows + 2 {
			report.AddPage(model.StoredPage{URL: "https://ex.com/p", Path: "ex.com/p"})
		}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "and 2 more file(s)") {
			t.Error("expected truncation note")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}

		var decoded model.MirrorReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.ID != report.ID || len(decoded.Pages) != 2 || decoded.Skipped != 3 {
			t.Errorf("decoded report mismatch: %+v", decoded)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output should be a single line")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"base_url\": \"https://ex.com/\"") {
			t.Errorf("expected indented output:\n%s", buf.String())
		}
	})
}

func TestNewFileWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "report.md", want: "*report.MarkdownWriter"},
		{path: "REPORT.MARKDOWN", want: "*report.MarkdownWriter"},
		{path: "out/report.json", want: "*report.JSONWriter"},
		{path: "report.txt", want: "*report.SimpleWriter"},
		{path: "report", want: "*report.SimpleWriter"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			w := NewFileWriter(tt.path, &bytes.Buffer{})
			if got := fmt.Sprintf("%T", w); got != tt.want {
				t.Errorf("NewFileWriter(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write(*model.MirrorReport) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b)).Write(createTestReport())
		if err != nil {
			t.Fatal(err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != a.Len()+b.Len() {
			t.Errorf("total = %d, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		_, err := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after)).Write(createTestReport())
		if err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("writers after the failing one must not run")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly10!", max: 10, want: "exactly10!"},
		{in: "this is too long", max: 10, want: "this is..."},
		{in: "abcdef", max: 3, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
