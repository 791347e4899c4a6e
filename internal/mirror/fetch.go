package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/gowget/internal/model"
)

// ErrBodyTooLarge is returned when a response exceeds the configured body limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// defaultMaxRedirects matches the limit of http.Client without CheckRedirect.
const defaultMaxRedirects = 10

// discardLimit bounds how much of an error response body is drained for connection reuse.
const discardLimit = 64 * 1024

// Fetcher retrieves one URL. Implementations must be safe for concurrent use.
// A non-2xx status is not an error at this level; the crawler decides what to do.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*model.FetchResult, error)
}

// HTTPFetcher is a Fetcher backed by an *http.Client.
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithMaxBodySize rejects bodies larger than size bytes. Zero disables the limit.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// NewHTTPFetcher wraps client, which carries proxy, timeout and header settings.
//
// Redirects are followed only while they stay on the host of the original
// request. A redirect to another host is returned as the 3xx response itself,
// so the crawler records it as a failure and never fetches the foreign page.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	sameHost := *client
	sameHost.CheckRedirect = sameHostRedirects(client.CheckRedirect)

	f := &HTTPFetcher{client: &sameHost}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// sameHostRedirects stops at a redirect that leaves the original host and
// otherwise defers to next, or to the net/http default when next is nil.
func sameHostRedirects(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !strings.EqualFold(req.URL.Hostname(), via[0].URL.Hostname()) {
			return http.ErrUseLastResponse
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= defaultMaxRedirects {
			return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
		}
		return nil
	}
}

// Fetch performs a GET request and reads the whole body of a successful response.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &model.FetchResult{
		URL:         u.String(),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
	}

	if !result.IsSuccess() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, discardLimit)) //nolint:errcheck // best effort drain
		return result, nil
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		body = io.LimitReader(resp.Body, f.maxBodySize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBodySize > 0 && int64(len(data)) > f.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodySize)
	}
	result.Body = data

	return result, nil
}
