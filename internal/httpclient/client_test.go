package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/gowget/internal/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("direct client has timeout and jar", func(t *testing.T) {
		t.Parallel()

		client, err := New(Options{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", client.Timeout)
		}
		if client.Jar == nil {
			t.Error("expected cookie jar")
		}
	})

	t.Run("header timeout is set on the transport", func(t *testing.T) {
		t.Parallel()

		client, err := New(Options{ResponseHeaderTimeout: 3 * time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 0 {
			t.Errorf("expected no overall timeout, got %v", client.Timeout)
		}
		hit, ok := client.Transport.(*headerInjectingTransport)
		if !ok {
			t.Fatalf("unexpected transport %T", client.Transport)
		}
		base, ok := hit.base.(*http.Transport)
		if !ok {
			t.Fatalf("unexpected base transport %T", hit.base)
		}
		if base.ResponseHeaderTimeout != 3*time.Second {
			t.Errorf("ResponseHeaderTimeout = %v, want 3s", base.ResponseHeaderTimeout)
		}
	})

	t.Run("valid proxy address is accepted", func(t *testing.T) {
		t.Parallel()

		if _, err := New(Options{ProxyAddress: "127.0.0.1:1080"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid proxy addresses are rejected", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{"localhost", ":1080", "host:0", "host:70000", "host:abc"} {
			if _, err := New(Options{ProxyAddress: addr}); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("%q: expected ErrInvalidProxyAddress, got %v", addr, err)
			}
		}
	})
}

func TestHeaderInjection(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	sites := &config.File{
		Defaults: config.SiteConfig{Headers: map[string]string{"X-Default": "1"}},
		Sites: map[string]config.SiteConfig{
			"127.0.0.1": {
				Cookie:    "session=abc",
				UserAgent: "site-agent/1",
				Headers:   map[string]string{"Authorization": "Bearer xyz"},
			},
		},
	}

	client, err := New(Options{Timeout: 5 * time.Second, UserAgent: "global/1", Sites: sites})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	got := <-headers
	if got.Get("User-Agent") != "site-agent/1" {
		t.Errorf("expected site user agent, got %q", got.Get("User-Agent"))
	}
	if got.Get("Cookie") != "session=abc" {
		t.Errorf("expected site cookie, got %q", got.Get("Cookie"))
	}
	if got.Get("Authorization") != "Bearer xyz" {
		t.Errorf("expected Authorization header, got %q", got.Get("Authorization"))
	}
	if got.Get("X-Default") != "1" {
		t.Errorf("expected default header, got %q", got.Get("X-Default"))
	}
}

func TestGlobalUserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
	}))
	t.Cleanup(srv.Close)

	client, err := New(Options{Timeout: 5 * time.Second, UserAgent: "global/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if ua := <-agents; ua != "global/1" {
		t.Errorf("expected global user agent, got %q", ua)
	}
}

func TestRedirectLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("expected last response instead of error, got %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 after hitting the limit, got %d", resp.StatusCode)
	}
	if got := hits.Load(); got != maxRedirects {
		t.Errorf("expected %d requests, got %d", maxRedirects, got)
	}
}
