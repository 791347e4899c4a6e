package download

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// defaultFileName is used when the URL has no usable last path segment.
const defaultFileName = "index.html"

// FileName derives the local file name from the last path segment of rawURL.
// The query string is ignored. URLs without a file name, such as
// "https://example.com/" or "https://example.com/dir/", yield "index.html".
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	var p string
	if err == nil {
		p = u.Path
	} else {
		p, _, _ = strings.Cut(rawURL, "?")
	}

	if p == "" || strings.HasSuffix(p, "/") {
		return defaultFileName
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == ".." {
		return defaultFileName
	}
	return name
}

// OutputPath returns where the body of rawURL is written.
// An explicit outputDocument wins over the name derived from the URL;
// either way the result is placed under prefix.
func OutputPath(rawURL, outputDocument, prefix string) string {
	name := outputDocument
	if name == "" {
		name = FileName(rawURL)
	}
	if prefix == "" {
		return name
	}
	return filepath.Join(prefix, name)
}

// ReadURLs reads one URL per line from file. Blank lines are skipped and
// surrounding whitespace is trimmed.
func ReadURLs(file string) ([]string, error) {
	f, err := os.Open(file) //nolint:gosec // the path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return urls, nil
}
