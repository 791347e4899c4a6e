package mirror

import (
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// indexFile is the file name used for directory-like URLs.
const indexFile = "index.html"

// queryHashLen is the number of hex characters of the query digest kept in file names.
const queryHashLen = 10

// LocalPath maps u to a file under root.
//
//	https://example.com         -> root/index.html
//	https://example.com/        -> root/index.html
//	https://example.com/a/b.html -> root/a/b.html
//	https://example.com/docs/   -> root/docs/index.html
//
// Dot segments are resolved so the result never leaves root.
func LocalPath(u *url.URL, root string) string {
	return filepath.Join(root, filepath.FromSlash(mirrorPath(u)))
}

// Reference returns the mirror-relative reference of u as seen from the
// mirror root: "index.html" for the root page, otherwise the mapped path
// without a leading slash, path escaped for use in an attribute.
func Reference(u *url.URL) string {
	return escapePath(mirrorPath(u))
}

// RelativeReference returns the reference to u that works from the file
// fromFile located inside root. For files at the mirror root it is the same
// as Reference; deeper files get the needed "../" segments.
func RelativeReference(fromFile, root string, u *url.URL) string {
	target := LocalPath(u, root)
	rel, err := filepath.Rel(filepath.Dir(fromFile), target)
	if err != nil {
		return Reference(u)
	}
	return escapePath(filepath.ToSlash(rel))
}

// mirrorPath returns the slash separated path of u below the mirror root.
func mirrorPath(u *url.URL) string {
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += indexFile
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		// "/a/.." and friends collapse to the root.
		p = indexFile
	}
	p = norm.NFC.String(p)

	if u.RawQuery != "" {
		p = withQueryDigest(p, u.RawQuery)
	}
	return p
}

// withQueryDigest inserts a short digest of the query before the extension,
// so "list.php?page=2" and "list.php?page=3" are stored as different files.
func withQueryDigest(p, rawQuery string) string {
	sum := sha3.Sum256([]byte(rawQuery))
	digest := hex.EncodeToString(sum[:])[:queryHashLen]

	dir, file := path.Split(p)
	ext := path.Ext(file)
	return dir + strings.TrimSuffix(file, ext) + "_" + digest + ext
}

// escapePath escapes every segment of a slash separated path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		if s == ".." || s == "." {
			continue
		}
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
