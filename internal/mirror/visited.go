package mirror

import (
	"net/url"
	"strings"
	"sync"
)

// VisitedSet records URLs that have been scheduled during one crawl.
// Add is an atomic check-and-insert, so a URL discovered by several
// workers at once is handed to exactly one of them.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add inserts the normalized form of u and reports whether it was absent.
func (v *VisitedSet) Add(u *url.URL) bool {
	return v.AddKey(NormalizeURL(u))
}

// AddKey inserts key verbatim and reports whether it was absent.
func (v *VisitedSet) AddKey(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	return true
}

// Len returns the number of recorded entries.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}

// NormalizeURL returns the deduplication key for u: the fragment is dropped,
// scheme and host are lowercased and an empty path becomes "/".
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	return n.String()
}
