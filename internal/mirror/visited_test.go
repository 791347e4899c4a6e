package mirror

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestVisitedSet_Add(t *testing.T) {
	t.Parallel()

	v := NewVisitedSet()
	if !v.Add(mustParse(t, "https://example.com/a")) {
		t.Error("first insert must succeed")
	}
	if v.Add(mustParse(t, "https://example.com/a")) {
		t.Error("second insert must fail")
	}
	if v.Add(mustParse(t, "HTTPS://EXAMPLE.COM/a#section")) {
		t.Error("scheme/host case and fragment must not create a new entry")
	}
	if !v.Add(mustParse(t, "https://example.com/A")) {
		t.Error("path case is significant")
	}
	if v.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", v.Len())
	}
}

func TestVisitedSet_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	v := NewVisitedSet()
	u := mustParse(t, "https://example.com/page")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Go(func() {
			if v.Add(u) {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("expected exactly one successful insert, got %d", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com/"},
		{"https://example.com/#top", "https://example.com/"},
		{"HTTP://Example.COM/Path", "http://example.com/Path"},
		{"https://example.com/a?b=1#c", "https://example.com/a?b=1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeURL(mustParse(t, tt.in)); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()
		u := mustParse(t, "https://Example.com/x#frag")
		_ = NormalizeURL(u)
		if u.Fragment != "frag" || u.Host != "Example.com" {
			t.Errorf("NormalizeURL mutated its argument: %v", u)
		}
	})
}
