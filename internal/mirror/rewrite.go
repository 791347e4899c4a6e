package mirror

import (
	"bytes"
	"context"
	"html"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// absoluteLinkAttr matches an href or src attribute whose quoted value is an
// absolute http(s) URL, a protocol-relative URL or a site-absolute path.
// The attribute name must follow whitespace, so data-src= and el.src= are
// left alone. Group 1 is everything up to the value; group 2 holds a double
// quoted value and group 3 a single quoted one.
var absoluteLinkAttr = regexp.MustCompile(`(?i)(\s(?:href|src)\s*=\s*)(?:"((?:https?:)?/[^"\s>]*)"|'((?:https?:)?/[^'\s>]*)')`)

// RewriteStats summarises one rewrite pass.
type RewriteStats struct {
	// FilesScanned is the number of HTML files read.
	FilesScanned int

	// FilesChanged is the number of HTML files written back.
	FilesChanged int

	// LinksRewritten is the number of attribute values replaced.
	LinksRewritten int
}

// Rewriter converts absolute links in a mirror tree into relative ones.
// Besides "http://" and "https://" URLs it also converts "//host/..." and
// "/path" references, which would otherwise point at the filesystem root
// when the mirror is opened from disk.
//
// Only files ending in .html or .htm are rewritten. HTML stored from an
// extensionless URL such as "/about" keeps its absolute links.
type Rewriter struct {
	root         string
	host         string
	existingOnly bool
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*Rewriter)

// WithHost restricts rewriting to links whose host name equals host.
// Links to other hosts are left absolute. Without it every absolute
// link is rewritten.
func WithHost(host string) RewriterOption {
	return func(r *Rewriter) {
		r.host = strings.ToLower(host)
	}
}

// WithExistingOnly leaves links absolute when their target was not saved,
// so pages that were rejected or failed still open online.
func WithExistingOnly(b bool) RewriterOption {
	return func(r *Rewriter) {
		r.existingOnly = b
	}
}

// NewRewriter returns a rewriter for the mirror tree at root.
func NewRewriter(root string, opts ...RewriterOption) *Rewriter {
	r := &Rewriter{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite walks the tree and rewrites every .html and .htm file in place.
// Only attribute values change; all other bytes are preserved. A file is
// written back only when its content changed, so running Rewrite twice
// leaves the tree untouched the second time.
//
// Rewrite must not run while a crawl is still writing into the same tree.
func (r *Rewriter) Rewrite(ctx context.Context) (RewriteStats, error) {
	var stats RewriteStats

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isHTMLFile(p) {
			return nil
		}

		data, err := os.ReadFile(p) //nolint:gosec // path comes from walking our own mirror tree
		if err != nil {
			return err
		}
		stats.FilesScanned++

		rewritten, n := r.rewriteFile(p, data)
		if n == 0 || bytes.Equal(rewritten, data) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := os.WriteFile(p, rewritten, info.Mode().Perm()); err != nil {
			return &StoreError{Path: p, Err: err}
		}
		stats.FilesChanged++
		stats.LinksRewritten += n
		return nil
	})

	return stats, err
}

// rewriteFile returns data with its absolute links replaced and the number of replacements.
func (r *Rewriter) rewriteFile(file string, data []byte) ([]byte, int) {
	count := 0
	out := absoluteLinkAttr.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := absoluteLinkAttr.FindSubmatch(match)
		prefix, quote, raw := sub[1], byte('"'), string(sub[2])
		if sub[3] != nil {
			quote, raw = '\'', string(sub[3])
		}

		ref, ok := r.localReference(file, raw)
		if !ok {
			return match
		}
		count++

		var b bytes.Buffer
		b.Grow(len(prefix) + len(ref) + 2)
		b.Write(prefix)
		b.WriteByte(quote)
		b.WriteString(ref)
		b.WriteByte(quote)
		return b.Bytes()
	})
	return out, count
}

// localReference maps an absolute link found in file to its relative reference.
func (r *Rewriter) localReference(file, raw string) (string, bool) {
	u, err := url.Parse(html.UnescapeString(raw))
	if err != nil {
		return "", false
	}
	// A site-absolute path has no host and always belongs to the mirrored site.
	if u.Host != "" && r.host != "" && strings.ToLower(u.Hostname()) != r.host {
		return "", false
	}
	if r.existingOnly {
		if _, err := os.Stat(LocalPath(u, r.root)); err != nil {
			return "", false
		}
	}

	ref := RelativeReference(file, r.root, u)
	if u.Fragment != "" {
		ref += "#" + u.EscapedFragment()
	}
	return ref, true
}

func isHTMLFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm":
		return true
	}
	return false
}
