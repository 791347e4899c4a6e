package mirror

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Classifier decides whether a URL may be crawled.
// It is built once per run from the filter configuration and is safe for
// concurrent use because it is never mutated after construction.
type Classifier struct {
	// domain is the lowercased target host name.
	domain string

	// reject matches paths ending in ".<token>" for any reject token.
	// nil when no tokens are configured.
	reject *regexp.Regexp

	// exclude holds path prefixes, each starting with "/".
	exclude []string
}

// NewClassifier compiles the reject tokens and normalizes the excluded prefixes.
// Tokens may be given with or without their leading dot ("pdf" or ".pdf").
// A token containing a path separator returns ErrInvalidRejectToken.
func NewClassifier(domain string, reject, exclude []string) (*Classifier, error) {
	c := &Classifier{domain: strings.ToLower(domain)}

	tokens := make([]string, 0, len(reject))
	for _, tok := range reject {
		tok = strings.TrimPrefix(strings.TrimSpace(tok), ".")
		if tok == "" {
			continue
		}
		if strings.ContainsAny(tok, `/\`) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRejectToken, tok)
		}
		tokens = append(tokens, regexp.QuoteMeta(tok))
	}
	if len(tokens) > 0 {
		c.reject = regexp.MustCompile(`(?i)\.(?:` + strings.Join(tokens, "|") + `)$`)
	}

	for _, prefix := range exclude {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		c.exclude = append(c.exclude, prefix)
	}

	return c, nil
}

// Eligible reports whether u passes every filter: http(s) scheme, same host
// as the target domain, not rejected by suffix and not under an excluded prefix.
func (c *Classifier) Eligible(u *url.URL) bool {
	return c.skipReason(u) == ""
}

// Excluded reports whether the slash separated path lies under an excluded prefix.
func (c *Classifier) Excluded(p string) bool {
	if p == "" {
		p = "/"
	}
	for _, prefix := range c.exclude {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Rejected reports whether the path ends in a rejected suffix.
func (c *Classifier) Rejected(p string) bool {
	return c.reject != nil && c.reject.MatchString(p)
}

// skipReason returns why u is not eligible, or "" when it is.
func (c *Classifier) skipReason(u *url.URL) string {
	switch {
	case u == nil:
		return "invalid URL"
	case !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https"):
		return "unsupported scheme"
	case strings.ToLower(u.Hostname()) != c.domain:
		return "other domain"
	case c.Rejected(u.Path):
		return "rejected suffix"
	case c.Excluded(u.Path):
		return "excluded directory"
	}
	return ""
}
