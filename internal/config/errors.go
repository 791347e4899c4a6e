package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() so callers can branch with errors.Is().
var (
	// ErrNoURL is returned when neither a positional URL nor --input-file provides a target.
	ErrNoURL = errors.New("no URL specified: provide a URL or use --input-file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the mirror worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidWait is returned when the delay between requests is negative.
	ErrInvalidWait = errors.New("invalid wait: must be non-negative")

	// ErrInvalidRateLimit is returned when a rate limit cannot be parsed or is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: use a byte count with an optional k or M suffix")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrOutputWithMirror is returned when -O is combined with --mirror.
	ErrOutputWithMirror = errors.New("conflicting options: --output-document cannot be used with --mirror")

	// ErrConvertWithoutMirror is returned when --convert-links is used for a plain download.
	ErrConvertWithoutMirror = errors.New("--convert-links requires --mirror")

	// ErrMultipleMirrorURLs is returned when more than one seed is given in mirror mode.
	ErrMultipleMirrorURLs = errors.New("--mirror accepts exactly one URL")
)
