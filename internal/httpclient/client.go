// Package httpclient builds the *http.Client shared by downloads and mirroring.
//
// The client optionally dials through a SOCKS5 proxy, keeps cookies across
// requests, caps redirects and injects per-host headers from the .gowget file.
package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/gowget/internal/config"
)

// maxRedirects is the number of redirects followed before the last response is returned.
const maxRedirects = 10

// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// Options configures New.
type Options struct {
	// Timeout bounds a whole request including reading the body.
	// Zero means no overall limit.
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for the response headers only.
	// Single-file downloads use it instead of Timeout so that large or
	// rate limited bodies are not cut off.
	ResponseHeaderTimeout time.Duration

	// ProxyAddress is a SOCKS5 proxy in "host:port" form. Empty means direct.
	ProxyAddress string

	// UserAgent is sent unless the site configuration overrides it.
	UserAgent string

	// Sites provides per-host cookies, headers and User-Agent. May be nil.
	Sites *config.File
}

// New returns an HTTP client configured from opts.
func New(opts Options) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("unexpected default transport type")
	}
	transport := base.Clone()
	transport.MaxIdleConnsPerHost = 8
	transport.ResponseHeaderTimeout = opts.ResponseHeaderTimeout

	if opts.ProxyAddress != "" {
		if !isValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		// An HTTP proxy from the environment must not wrap the SOCKS tunnel.
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = nil
			transport.Dial = dialer.Dial //nolint:staticcheck // only reached for dialers without DialContext
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      transport,
			userAgent: opts.UserAgent,
			sites:     opts.Sites,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress checks that address is "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// headerInjectingTransport adds the User-Agent and the per-host cookie and
// headers to every outgoing request.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	sites     *config.File
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	userAgent := t.userAgent
	if t.sites != nil {
		site := t.sites.GetSiteConfig(req.URL.Hostname())
		if site.UserAgent != "" {
			userAgent = site.UserAgent
		}
		if site.Cookie != "" {
			if existing := clone.Header.Get("Cookie"); existing != "" {
				clone.Header.Set("Cookie", existing+"; "+site.Cookie)
			} else {
				clone.Header.Set("Cookie", site.Cookie)
			}
		}
		for key, value := range site.Headers {
			clone.Header.Set(key, value)
		}
	}
	if userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", userAgent)
	}

	return t.base.RoundTrip(clone)
}
