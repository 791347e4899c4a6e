package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/gowget/internal/config"
	"github.com/nao1215/gowget/internal/download"
	"github.com/nao1215/gowget/internal/httpclient"
	gwlog "github.com/nao1215/gowget/internal/log"
)

// NewRootCmd creates the root command. Like wget, the root command itself
// does the work: it downloads the given URLs, or mirrors a site with --mirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gowget [flags] [url...]",
		Short: "Download files and mirror websites",
		Long: `gowget retrieves files over HTTP and HTTPS.

Without --mirror every URL is downloaded into a single file named after the
last path segment of the URL. With --mirror the site behind the URL is
crawled recursively and saved under a directory named after its host;
--convert-links then rewrites the saved pages so the mirror can be browsed
offline.

Examples:
  # Download a file
  gowget https://example.com/archive.zip

  # Download every URL listed in a file into ./downloads at 300 KiB/s
  gowget -i urls.txt -P downloads --rate-limit 300k

  # Download in the background, progress goes to wget-log
  gowget -B https://example.com/big.iso

  # Mirror a site for offline browsing, skipping images and /private
  gowget --mirror --convert-links -R jpg,png -X /private https://example.com/

  # Mirror and keep a Markdown report and a history entry
  gowget -m --report mirror.md --history https://example.com/`,
		Version:       getVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	// Input and output
	cmd.Flags().StringP("input-file", "i", "", "Read URLs from file, one per line")
	cmd.Flags().StringP("output-document", "O", "", "Save the download under this file name")
	cmd.Flags().StringP("directory-prefix", "P", config.DefaultDirectoryPrefix,
		"Directory to save files and mirrors in")
	cmd.Flags().BoolP("background", "B", false, "Write progress to '"+config.DefaultLogFile+"' instead of the terminal")
	cmd.Flags().String("rate-limit", "", "Limit download speed, e.g. 300k or 2M (bytes per second)")

	// Mirroring
	cmd.Flags().BoolP("mirror", "m", false, "Mirror the whole site behind the URL")
	cmd.Flags().BoolP("convert-links", "k", false, "Convert links in mirrored pages for offline viewing")
	cmd.Flags().StringP("reject", "R", "", "Comma separated file suffixes to skip, e.g. jpg,gif")
	cmd.Flags().StringP("exclude-directories", "X", "", "Comma separated path prefixes to skip, e.g. /admin,/tmp")
	cmd.Flags().DurationP("wait", "w", 0, "Minimum delay between requests while mirroring")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency, "Number of parallel fetches while mirroring")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages, "Stop mirroring after this many files (0 = unlimited)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Largest accepted response body in bytes while mirroring")
	cmd.Flags().String("report", "", "Write a run summary to this file (.md, .json or text)")
	cmd.Flags().Bool("history", false, "Record the mirror run in the history database")

	// HTTP
	cmd.Flags().DurationP("timeout", "T", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().StringP("user-agent", "U", config.DefaultUserAgent, "User-Agent header to send")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().String("config", "", "Configuration file path (default: .gowget in current or home directory)")

	// Error handling
	cmd.Flags().Bool("best-effort", false, "Log fatal errors and exit 0 instead of failing")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd downloads or mirrors according to the flags.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	out := cmd.OutOrStdout()
	var logFile *os.File
	if cfg.Background {
		logFile, err = os.Create(config.DefaultLogFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", config.DefaultLogFile, err)
		}
		defer logFile.Close()
	}

	logger := setupLogger(cfg.Verbose, logFile, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Mirror {
		if cfg.Background {
			fmt.Fprintln(out, download.BackgroundNotice)
			out = logFile
		}
		err = runMirror(ctx, cfg, out, logger)
	} else {
		var background io.Writer
		if logFile != nil {
			background = logFile
		}
		err = runDownload(ctx, cfg, out, background, logger)
	}

	if err != nil && cfg.BestEffort && !errors.Is(err, context.Canceled) {
		logger.Warn("finished with errors", "error", err)
		return nil
	}
	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.InputFile, err = flags.GetString("input-file"); err != nil {
		return nil, err
	}
	if cfg.OutputDocument, err = flags.GetString("output-document"); err != nil {
		return nil, err
	}
	if cfg.DirectoryPrefix, err = flags.GetString("directory-prefix"); err != nil {
		return nil, err
	}
	if cfg.Background, err = flags.GetBool("background"); err != nil {
		return nil, err
	}

	rateLimit, err := flags.GetString("rate-limit")
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = config.ParseRateLimit(rateLimit); err != nil {
		return nil, err
	}

	if cfg.Mirror, err = flags.GetBool("mirror"); err != nil {
		return nil, err
	}
	if cfg.ConvertLinks, err = flags.GetBool("convert-links"); err != nil {
		return nil, err
	}

	reject, err := flags.GetString("reject")
	if err != nil {
		return nil, err
	}
	cfg.Reject = config.SplitList(reject)

	exclude, err := flags.GetString("exclude-directories")
	if err != nil {
		return nil, err
	}
	cfg.ExcludeDirectories = config.SplitList(exclude)

	if cfg.Wait, err = flags.GetDuration("wait"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	if cfg.SaveHistory, err = flags.GetBool("history"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BestEffort, err = flags.GetBool("best-effort"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicitly named config file must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.URLs = args
	if cfg.InputFile != "" {
		urls, err := download.ReadURLs(cfg.InputFile)
		if err != nil {
			return nil, err
		}
		cfg.URLs = append(cfg.URLs, urls...)
	}

	return cfg, nil
}

// setupLogger creates the secure logger. In background mode it writes to
// the log file, otherwise to stderr.
func setupLogger(verbose bool, logFile *os.File, stderr io.Writer) *slog.Logger {
	if logFile != nil {
		return gwlog.NewSecureLogger(logFile, verbose)
	}
	return gwlog.NewSecureLogger(stderr, verbose)
}

// newHTTPClient builds the client shared by every request of the run.
// Mirrors bound each whole request by cfg.Timeout. Single-file downloads
// only bound the wait for the response headers, so slow or rate limited
// bodies are not cut off.
func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	opts := httpclient.Options{
		ProxyAddress: cfg.ProxyAddress,
		UserAgent:    cfg.UserAgent,
		Sites:        cfg.SiteConfigs,
	}
	if cfg.Mirror {
		opts.Timeout = cfg.Timeout
	} else {
		opts.ResponseHeaderTimeout = cfg.Timeout
	}

	client, err := httpclient.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}
