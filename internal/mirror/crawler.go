package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/gowget/internal/model"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Crawler walks one site breadth-first and writes every accepted URL into
// the mirror tree.
//
// A single coordinator goroutine owns the frontier and the report. It hands
// URLs to at most concurrency workers and applies their outcomes, so the
// report needs no locking. URLs are classified and claimed in the visited set
// before they enter the frontier, which means excluded or cross-domain URLs
// are never fetched and no URL is fetched twice.
type Crawler struct {
	cfg        *Config
	fetcher    Fetcher
	classifier *Classifier
	logger     *slog.Logger

	concurrency     int
	maxPages        int
	limiter         *rate.Limiter
	continueOnStore bool
	onStored        func(model.StoredPage)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the number of parallel fetches. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		c.concurrency = max(n, 1)
	}
}

// WithMaxPages stops dispatching once n files are stored. Zero means unlimited.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithWait spaces consecutive requests at least d apart across all workers.
func WithWait(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithContinueOnStoreError records write failures as per-URL failures
// instead of aborting the crawl.
func WithContinueOnStoreError(b bool) Option {
	return func(c *Crawler) {
		c.continueOnStore = b
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithOnStored registers a callback invoked from the coordinator goroutine
// after each file is written.
func WithOnStored(fn func(model.StoredPage)) Option {
	return func(c *Crawler) {
		c.onStored = fn
	}
}

// NewCrawler builds a crawler for cfg. It fails with ErrInvalidRejectToken
// when a reject token cannot be compiled.
func NewCrawler(cfg *Config, fetcher Fetcher, opts ...Option) (*Crawler, error) {
	classifier, err := NewClassifier(cfg.Domain, cfg.Reject, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		cfg:         cfg,
		fetcher:     fetcher,
		classifier:  classifier,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// job is one claimed URL together with its destination file.
type job struct {
	u    *url.URL
	dest string
}

// outcome is what a worker reports back for one job.
type outcome struct {
	job     job
	page    *model.StoredPage
	failure *model.Failure
	skipped bool
	// duplicate is set when a redirect led to a URL mirrored by another job.
	duplicate bool
	canceled  bool
	links     []*url.URL
	fatal     error
}

// Crawl mirrors the site into cfg.Root and records the results in report.
//
// Per-URL fetch failures are recorded in report.Failures and do not stop
// the crawl. Failing to create the root, or to write a file unless
// WithContinueOnStoreError is set, aborts the crawl with an error after
// in-flight requests have finished. When ctx is canceled no new requests are
// started; the partial result is kept, report.Canceled is set and nil is returned.
func (c *Crawler) Crawl(ctx context.Context, report *model.MirrorReport) error {
	report.Domain = c.cfg.Domain
	report.Root = c.cfg.Root

	if err := os.MkdirAll(c.cfg.Root, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateRoot, err)
	}

	seen := &claims{urls: NewVisitedSet(), paths: NewVisitedSet()}
	var frontier []job

	enqueue := func(u *url.URL) {
		if reason := c.classifier.skipReason(u); reason != "" {
			report.Skipped++
			c.logger.Debug("skipping URL", "url", u.String(), "reason", reason)
			return
		}
		if !seen.urls.Add(u) {
			return
		}
		dest := LocalPath(u, c.cfg.Root)
		if !seen.paths.AddKey(dest) {
			// Another URL (e.g. the http twin of an https page) already owns this file.
			c.logger.Debug("skipping URL", "url", u.String(), "reason", "same local path", "path", dest)
			return
		}
		frontier = append(frontier, job{u: u, dest: dest})
	}

	enqueue(c.cfg.BaseURL)

	results := make(chan outcome)
	var g errgroup.Group
	inFlight, stored := 0, 0
	var fatal error

	for {
		for fatal == nil && ctx.Err() == nil && len(frontier) > 0 && inFlight < c.concurrency &&
			(c.maxPages == 0 || stored+inFlight < c.maxPages) {
			next := frontier[0]
			frontier = frontier[1:]
			inFlight++
			g.Go(func() error {
				results <- c.process(ctx, next, seen)
				return nil
			})
		}
		if inFlight == 0 {
			break
		}

		out := <-results
		inFlight--

		switch {
		case out.fatal != nil:
			if fatal == nil {
				fatal = out.fatal
				c.logger.Error("aborting crawl", "url", out.job.u.String(), "error", out.fatal)
			}
		case out.canceled:
		case out.duplicate:
			c.logger.Debug("skipping URL", "url", out.job.u.String(), "reason", "redirect target already mirrored")
		case out.skipped:
			report.Skipped++
		case out.failure != nil:
			report.AddFailure(*out.failure)
			c.logger.Warn("failed to mirror URL", "url", out.failure.URL, "error", out.failure.Reason)
		case out.page != nil:
			stored++
			report.AddPage(*out.page)
			c.logger.Info("stored", "url", out.page.URL, "path", out.page.Path, "size", out.page.Size)
			if c.onStored != nil {
				c.onStored(*out.page)
			}
			for _, link := range out.links {
				enqueue(link)
			}
		}
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	if fatal != nil {
		return fatal
	}
	if ctx.Err() != nil {
		report.Canceled = true
		c.logger.Warn("crawl canceled",
			"stored", stored,
			"seen", seen.urls.Len(),
			"pending", len(frontier),
		)
	}
	return nil
}

// claims holds the URLs and local paths already taken by a crawl. Both sets
// are shared by the coordinator and the workers.
type claims struct {
	urls  *VisitedSet
	paths *VisitedSet
}

// process fetches, stores and parses one URL.
func (c *Crawler) process(ctx context.Context, j job, seen *claims) outcome {
	out := outcome{job: j}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			out.canceled = true
			return out
		}
	}

	res, err := c.fetcher.Fetch(ctx, j.u)
	if err != nil {
		if ctx.Err() != nil {
			out.canceled = true
			return out
		}
		fe := &FetchError{URL: j.u.String(), Err: err}
		out.failure = &model.Failure{URL: fe.URL, Reason: fe.Error()}
		return out
	}
	if !res.IsSuccess() {
		fe := &FetchError{URL: j.u.String(), StatusCode: res.StatusCode}
		out.failure = &model.Failure{URL: fe.URL, StatusCode: fe.StatusCode, Reason: fe.Error()}
		return out
	}

	page, dest, ok := c.redirectTarget(j, res, seen)
	if !ok {
		if page == nil {
			out.failure = &model.Failure{
				URL:        j.u.String(),
				StatusCode: res.StatusCode,
				Reason:     "redirected off-site to " + res.FinalURL,
			}
			return out
		}
		out.duplicate = true
		return out
	}

	if c.excludedAfterFetch(dest, page, page != j.u) {
		c.logger.Debug("skipping URL", "url", j.u.String(), "reason", "excluded directory", "path", dest)
		out.skipped = true
		return out
	}

	if err := store(dest, res.Body); err != nil {
		if c.continueOnStore {
			out.failure = &model.Failure{URL: j.u.String(), Reason: err.Error()}
		} else {
			out.fatal = err
		}
		return out
	}

	out.page = &model.StoredPage{
		URL:         j.u.String(),
		Path:        dest,
		Size:        int64(len(res.Body)),
		ContentType: res.ContentType,
		StatusCode:  res.StatusCode,
	}

	if res.IsHTML() {
		out.links = c.sameHostLinks(page, res.Body)
	}
	return out
}

// redirectTarget returns the URL the body belongs to and the file it is
// stored in. Without a redirect that is the job itself. After a redirect on
// the target host the final URL decides the path, so "/docs" redirected to
// "/docs/" is stored as docs/index.html, and the final URL is claimed so it
// is not fetched again.
//
// ok is false when the body must not be stored: page is nil for a redirect
// that left the target host, and non-nil when the final URL's file is
// already claimed by another URL.
func (c *Crawler) redirectTarget(j job, res *model.FetchResult, seen *claims) (page *url.URL, dest string, ok bool) {
	if res.FinalURL == "" || res.FinalURL == res.URL {
		return j.u, j.dest, true
	}

	final, err := url.Parse(res.FinalURL)
	if err != nil || !strings.EqualFold(final.Hostname(), c.cfg.Domain) {
		return nil, "", false
	}
	final.Fragment = ""
	final.RawFragment = ""

	seen.urls.Add(final)
	dest = LocalPath(final, c.cfg.Root)
	if dest != j.dest && !seen.paths.AddKey(dest) {
		return final, "", false
	}
	return final, dest, true
}

// excludedAfterFetch re-checks exclusion against the concrete parent directory
// of dest and, after a redirect, against the path of the final URL.
func (c *Crawler) excludedAfterFetch(dest string, page *url.URL, redirected bool) bool {
	rel, err := filepath.Rel(c.cfg.Root, filepath.Dir(dest))
	if err != nil {
		return false
	}
	parent := "/"
	if rel != "." {
		parent = "/" + filepath.ToSlash(rel) + "/"
	}
	if c.classifier.Excluded(parent) {
		return true
	}
	return redirected && c.classifier.Excluded(page.Path)
}

// sameHostLinks resolves every link in body against page and keeps those on page's host.
func (c *Crawler) sameHostLinks(page *url.URL, body []byte) []*url.URL {
	var links []*url.URL
	for raw := range ExtractLinks(body) {
		ref, err := page.Parse(raw)
		if err != nil {
			continue
		}
		ref.Fragment = ""
		ref.RawFragment = ""
		if !strings.EqualFold(ref.Hostname(), page.Hostname()) {
			continue
		}
		links = append(links, ref)
	}
	return links
}

// store writes data to dest, creating parent directories as needed.
func store(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return &StoreError{Path: dest, Err: err}
	}
	if err := os.WriteFile(dest, data, filePerm); err != nil {
		return &StoreError{Path: dest, Err: err}
	}
	return nil
}
