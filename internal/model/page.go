package model

import (
	"mime"
	"net/http"
	"strings"
)

// FetchResult is the response for one URL as returned by a fetcher.
// It is transient: the crawler stores the body and discards the value.
type FetchResult struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Equal to URL when none happened.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the raw Content-Type header value.
	ContentType string `json:"content_type"`

	// Header contains all response headers.
	Header http.Header `json:"-"`

	// Body is the complete response body.
	Body []byte `json:"-"`
}

// IsSuccess reports whether the status code is 2xx.
func (f *FetchResult) IsSuccess() bool {
	return f.StatusCode >= 200 && f.StatusCode < 300
}

// IsHTML reports whether the Content-Type denotes an HTML document.
// Unparseable headers fall back to a substring check, which is how
// servers that send "text/html;;charset" are still recognised.
func (f *FetchResult) IsHTML() bool {
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.Contains(strings.ToLower(f.ContentType), "text/html")
	}
	return mediaType == "text/html"
}

// StoredPage describes one file written into the mirror tree.
type StoredPage struct {
	// URL is the absolute URL the content was fetched from.
	URL string `json:"url"`

	// Path is the local file path, including the mirror root.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// ContentType is the Content-Type reported by the server.
	ContentType string `json:"content_type"`

	// StatusCode is the HTTP status of the response that was stored.
	StatusCode int `json:"status_code"`
}

// Failure records a URL whose fetch or store did not succeed.
// Failures end only their own branch of the crawl.
type Failure struct {
	// URL is the URL that failed.
	URL string `json:"url"`

	// StatusCode is the HTTP status, or 0 for transport and I/O errors.
	StatusCode int `json:"status_code,omitempty"`

	// Reason is the error message.
	Reason string `json:"reason"`
}
