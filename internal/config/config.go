package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single HTTP request including reading the body.
	// Mirrors fetch images and archives as well as pages, so this is generous.
	DefaultTimeout = 60 * time.Second

	// DefaultConcurrency is the number of pages fetched in parallel while mirroring.
	// A value of 1 reproduces strictly sequential wget behaviour.
	DefaultConcurrency = 4

	// DefaultMaxPages of 0 means the crawl is bounded only by the site itself.
	DefaultMaxPages = 0

	// DefaultDirectoryPrefix is where downloads and mirror roots are created.
	DefaultDirectoryPrefix = "."

	// AppName is the application name used for XDG directory paths.
	AppName = "gowget"

	// DefaultUserAgent identifies gowget in HTTP requests.
	DefaultUserAgent = "gowget/1.0 (+https://github.com/nao1215/gowget)"

	// DefaultMaxBodySize limits how many bytes are accepted for one mirrored URL.
	// Larger responses are reported as fetch failures instead of being truncated,
	// because a truncated file in the mirror is worse than a missing one.
	DefaultMaxBodySize = 256 * 1024 * 1024 // 256MB

	// DefaultLogFile is the file background mode writes to.
	DefaultLogFile = "wget-log"
)

// Config holds every option for one gowget invocation.
// It is populated from CLI flags (and optionally the .gowget file) once,
// then passed down explicitly. Nothing reads it from global state.
type Config struct {
	// URLs are the targets. In mirror mode exactly the first one is used as the seed.
	URLs []string

	// InputFile is a file with one URL per line. Blank lines are ignored.
	InputFile string

	// Mirror switches from single-file download to recursive site mirroring.
	Mirror bool

	// ConvertLinks rewrites absolute links in the mirrored HTML for offline viewing.
	ConvertLinks bool

	// Reject holds file suffix tokens (without the dot) that are never fetched.
	Reject []string

	// ExcludeDirectories holds URL path prefixes that are never fetched or stored.
	ExcludeDirectories []string

	// OutputDocument overrides the file name of a single download (-O).
	OutputDocument string

	// DirectoryPrefix is the directory under which files and mirror roots are saved (-P).
	DirectoryPrefix string

	// RateLimit caps single-file download speed in bytes per second.
	// Zero disables limiting.
	RateLimit int64

	// Background redirects progress output to DefaultLogFile.
	Background bool

	// Wait is the minimum delay between two requests while mirroring.
	Wait time.Duration

	// Concurrency is the number of mirror workers.
	Concurrency int

	// MaxPages stops a mirror after this many stored files. Zero means unlimited.
	MaxPages int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request unless a site config overrides it.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// MaxBodySize is the largest accepted body in bytes for a mirrored URL.
	MaxBodySize int64

	// ConfigFilePath is the path to the configuration file.
	// If empty, .gowget is searched for in the current directory,
	// the home directory and the XDG config directory.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the configuration file.
	SiteConfigs *File

	// ReportFile receives a Markdown summary of a mirror run when set.
	ReportFile string

	// SaveHistory records each mirror run in the SQLite history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/gowget on Linux).
	DBDir string

	// BestEffort logs fatal errors instead of exiting with a non-zero status.
	BestEffort bool

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DirectoryPrefix: DefaultDirectoryPrefix,
		Concurrency:     DefaultConcurrency,
		MaxPages:        DefaultMaxPages,
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for gowget.
// On Linux: ~/.local/share/gowget
// On macOS: ~/Library/Application Support/gowget
// On Windows: %LOCALAPPDATA%\gowget
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gowget.
// On Linux: ~/.config/gowget
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found as one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if len(c.URLs) == 0 {
		return ErrNoURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Wait < 0 {
		return ErrInvalidWait
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// -O names a single file; a mirror writes a whole tree.
	if c.Mirror && c.OutputDocument != "" {
		return ErrOutputWithMirror
	}

	if c.ConvertLinks && !c.Mirror {
		return ErrConvertWithoutMirror
	}

	if c.Mirror && len(c.URLs) > 1 {
		return ErrMultipleMirrorURLs
	}

	return nil
}
