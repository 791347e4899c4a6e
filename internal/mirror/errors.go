package mirror

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors that abort a mirror run before anything is fetched.
var (
	// ErrInvalidBaseURL is returned when the seed URL cannot be parsed
	// or is not an absolute http(s) URL with a host.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidRejectToken is returned for reject tokens that cannot
	// describe a file suffix, such as tokens containing a slash.
	ErrInvalidRejectToken = errors.New("invalid reject token")

	// ErrCreateRoot is returned when the mirror root directory cannot be created.
	ErrCreateRoot = errors.New("failed to create mirror root")
)

// FetchError describes a URL whose request failed or returned a non-2xx status.
// It ends that URL's branch only; the crawl continues with other URLs.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StoreError describes a failure to write a file into the mirror tree.
type StoreError struct {
	// Path is the local path that could not be written.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
