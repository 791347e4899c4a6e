package mirror

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Config is the immutable description of one mirror run.
type Config struct {
	// BaseURL is the seed of the crawl, without fragment.
	BaseURL *url.URL

	// Domain is the lowercased host name of BaseURL; the crawl never leaves it.
	Domain string

	// Reject holds file suffix tokens that are never fetched ("pdf", "zip").
	Reject []string

	// Exclude holds URL path prefixes that are never fetched or stored.
	Exclude []string

	// ConvertLinks requests the offline link rewrite after crawling.
	ConvertLinks bool

	// Root is the mirror root directory, named after Domain.
	Root string
}

// NewConfig parses rawURL and derives the target domain and mirror root.
// The root is prefix/<domain>. A URL without a scheme is treated as http.
// Parse failures and non-http(s) URLs return ErrInvalidBaseURL.
func NewConfig(rawURL, prefix string, reject, exclude []string, convertLinks bool) (*Config, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" && !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidBaseURL, rawURL)
	}
	u.Fragment = ""
	u.RawFragment = ""

	domain := strings.ToLower(u.Hostname())

	return &Config{
		BaseURL:      u,
		Domain:       domain,
		Reject:       reject,
		Exclude:      exclude,
		ConvertLinks: convertLinks,
		Root:         filepath.Join(prefix, domain),
	}, nil
}
