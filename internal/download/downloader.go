package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// chunkSize is the unit in which bodies are copied and rate limited.
const chunkSize = 8192

// BackgroundNotice is printed once when background mode is active.
const BackgroundNotice = "Output will be written to 'wget-log'."

// ErrDownloadFailed is returned for responses outside the 2xx range.
var ErrDownloadFailed = errors.New("failed to download")

// DownloadStats describes one completed download.
type DownloadStats struct {
	StartTime time.Time
	EndTime   time.Time
	URL       string
	// Status is the status line, e.g. "200 OK".
	Status string
	// ContentLength is the announced length, 0 when unknown.
	ContentLength  int64
	FilePath       string
	DownloadedSize int64
}

// Downloader fetches URLs one after another into single files.
type Downloader struct {
	client         *http.Client
	prefix         string
	outputDocument string
	limiter        *rate.Limiter
	out            io.Writer
	logFile        io.Writer
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithDirectoryPrefix sets the directory files are saved under.
func WithDirectoryPrefix(prefix string) Option {
	return func(d *Downloader) {
		d.prefix = prefix
	}
}

// WithOutputDocument fixes the output file name instead of deriving it from the URL.
func WithOutputDocument(name string) Option {
	return func(d *Downloader) {
		d.outputDocument = name
	}
}

// WithRateLimit caps the copy speed in bytes per second. Zero disables it.
func WithRateLimit(bytesPerSecond int64) Option {
	return func(d *Downloader) {
		if bytesPerSecond <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), chunkSize)
	}
}

// WithOutput sets where console progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(d *Downloader) {
		d.out = w
	}
}

// WithBackground switches to background mode: console lines are suppressed
// and one record per download is written to w instead.
func WithBackground(w io.Writer) Option {
	return func(d *Downloader) {
		d.logFile = w
	}
}

// WithLogger sets the logger for diagnostic messages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// New creates a Downloader that issues requests with client.
func New(client *http.Client, opts ...Option) *Downloader {
	d := &Downloader{
		client: client,
		out:    os.Stdout,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Downloader) background() bool {
	return d.logFile != nil
}

// DownloadAll downloads urls in order and stops at the first error.
// The stats of the downloads finished before the error are returned with it.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string) ([]*DownloadStats, error) {
	if d.background() {
		fmt.Fprintln(d.out, BackgroundNotice)
	}

	all := make([]*DownloadStats, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		stats, err := d.Download(ctx, u)
		if err != nil {
			return all, err
		}
		all = append(all, stats)

		if d.background() {
			if err := writeLogRecord(d.logFile, stats); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// Download fetches rawURL and writes the body to its output path.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*DownloadStats, error) {
	stats := &DownloadStats{
		StartTime: d.now(),
		URL:       rawURL,
	}
	d.printf("Starting download for %s\n", rawURL)
	d.printf("Start time: %s\n", stats.StartTime.Format(TimeFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	stats.Status = resp.Status
	d.printf("Response Status: %s\n", stats.Status)
	d.logger.Debug("response received", "url", rawURL, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %s: %s", ErrDownloadFailed, rawURL, stats.Status)
	}

	stats.ContentLength = max(resp.ContentLength, 0)
	stats.FilePath = OutputPath(rawURL, d.outputDocument, d.prefix)

	if err := os.MkdirAll(filepath.Dir(stats.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", stats.FilePath, err)
	}

	f, err := os.Create(stats.FilePath) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", stats.FilePath, err)
	}

	var prog *progress
	if !d.background() {
		prog = newProgress(d.out, stats.ContentLength)
	}

	n, copyErr := d.copyChunks(ctx, f, resp.Body, prog)
	stats.DownloadedSize = n
	if prog != nil {
		prog.finish()
	}
	if closeErr := f.Close(); copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return nil, fmt.Errorf("failed to save %s: %w", stats.FilePath, copyErr)
	}

	stats.EndTime = d.now()
	d.printf("File saved to: %s [%s]\n", stats.FilePath, humanize.IBytes(uint64(n)))
	d.printf("Downloaded size: %d bytes\n", n)
	d.printf("End time: %s\n", stats.EndTime.Format(TimeFormat))

	d.logger.Debug("download finished", "url", rawURL, "path", stats.FilePath, "bytes", n)
	return stats, nil
}

// copyChunks copies src to dst in chunkSize pieces, waiting on the limiter
// before each write so the average speed stays at or below the limit.
func (d *Downloader) copyChunks(ctx context.Context, dst io.Writer, src io.Reader, prog *progress) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if d.limiter != nil {
				if err := d.limiter.WaitN(ctx, n); err != nil {
					return written, err
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if prog != nil {
				prog.update(written)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// printf writes a console line unless running in background mode.
func (d *Downloader) printf(format string, args ...any) {
	if d.background() {
		return
	}
	fmt.Fprintf(d.out, format, args...)
}
