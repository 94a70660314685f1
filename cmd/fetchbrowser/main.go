// Command fetchbrowser downloads an unpacked browser build for a version
// string: "fetchbrowser 114" fetches the nearest Chromium snapshot,
// "fetchbrowser ff117" the matching Firefox release.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hamflx/fetchbrowser/internal/browser"
	"github.com/hamflx/fetchbrowser/internal/cache"
	"github.com/hamflx/fetchbrowser/internal/chromium"
	"github.com/hamflx/fetchbrowser/internal/config"
	"github.com/hamflx/fetchbrowser/internal/firefox"
	"github.com/hamflx/fetchbrowser/internal/httpclient"
	"github.com/hamflx/fetchbrowser/internal/logging"
	"github.com/hamflx/fetchbrowser/internal/platform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		osName   string
		channel  string
		cacheDir string
		locale   string
		proxyURL string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "fetchbrowser <version>",
		Short: "Download an unpacked Chromium or Firefox build by version",
		Long: "fetchbrowser resolves a full or partial browser version to a " +
			"downloadable build and unpacks it into the current directory.\n\n" +
			"Prefix the version with \"ff\" to download Firefox instead of Chromium.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("channel") {
				cfg.Channel = channel
			}
			if flags.Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if flags.Changed("locale") {
				cfg.Locale = locale
			}
			if flags.Changed("proxy") {
				cfg.ProxyURL = proxyURL
			}
			if verbose {
				cfg.Verbose = true
			}
			return run(cmd, args[0], osName, cfg)
		},
	}

	cmd.Flags().StringVarP(&osName, "os", "o", "", "target OS (windows, linux, macos; defaults to the host)")
	cmd.Flags().StringVar(&channel, "channel", "stable", "chromium release channel (stable, beta, dev, canary)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for listing caches")
	cmd.Flags().StringVar(&locale, "locale", "en-US", "firefox installer locale")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "proxy URL (overrides proxy environment variables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every listing page and archive entry")

	return cmd
}

func run(cmd *cobra.Command, version, osName string, cfg config.Config) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}

	level := logging.LevelInfo
	if cfg.Verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewConsole(level)

	client, err := httpclient.New(httpclient.Options{
		Timeout:  cfg.HTTPTimeout,
		ProxyURL: cfg.ProxyURL,
	})
	if err != nil {
		return err
	}
	// Archive streams must not race a whole-request timeout.
	streamClient, err := httpclient.New(httpclient.Options{ProxyURL: cfg.ProxyURL})
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.CacheDir, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if ffVersion, ok := strings.CutPrefix(version, "ff"); ok {
		releases, err := firefox.NewReleases(ctx, firefox.Options{
			Client:       client,
			StreamClient: streamClient,
			Cache:        store,
			Logger:       logger,
			Locale:       cfg.Locale,
		})
		if err != nil {
			return err
		}
		return fetch(cmd, releases, ffVersion, cwd, logger)
	}

	targetOS, err := resolveOS(osName)
	if err != nil {
		return err
	}

	x64 := platform.Platform{OS: targetOS, Arch: platform.X64}
	err = fetchChromium(cmd, version, x64, cwd, cfg, client, streamClient, store, logger)
	if err == nil {
		return nil
	}

	// Very old versions were only built for 32-bit; retry there when the
	// platforms actually differ.
	x86 := platform.Platform{OS: targetOS, Arch: platform.X86}
	if x64.Equivalent(x86) {
		return err
	}
	logger.Warn("x64 download failed, trying x86: %v", err)
	return fetchChromium(cmd, version, x86, cwd, cfg, client, streamClient, store, logger)
}

func fetchChromium(
	cmd *cobra.Command,
	version string,
	p platform.Platform,
	baseDir string,
	cfg config.Config,
	client, streamClient *http.Client,
	store *cache.Store,
	logger logging.Logger,
) error {
	releases, err := chromium.NewReleases(cmd.Context(), p, chromium.Options{
		Client:       client,
		StreamClient: streamClient,
		Cache:        store,
		Logger:       logger,
		Channel:      cfg.Channel,
		Tolerance:    cfg.RevisionTolerance,
	})
	if err != nil {
		return err
	}
	return fetch(cmd, releases, version, baseDir, logger)
}

func resolveOS(osName string) (platform.OS, error) {
	if osName == "" {
		return platform.HostOS()
	}
	return platform.ParseOS(osName)
}

func fetch(cmd *cobra.Command, releases browser.Releases, version, baseDir string, logger logging.Logger) error {
	ctx := cmd.Context()
	release, err := releases.Resolve(ctx, version)
	if err != nil {
		return err
	}
	dir, err := release.Download(ctx, baseDir)
	if err != nil {
		return err
	}
	logger.Info("done: %s %s", color.GreenString(release.Version()), dir)
	return nil
}
