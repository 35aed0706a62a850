package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/qaboard/internal/config"
	"github.com/five82/qaboard/internal/gateway"
	"github.com/five82/qaboard/internal/health"
	"github.com/five82/qaboard/internal/highlight"
	"github.com/five82/qaboard/internal/joinlink"
	"github.com/five82/qaboard/internal/mutation"
	"github.com/five82/qaboard/internal/prefs"
	"github.com/five82/qaboard/internal/state"
	"github.com/five82/qaboard/internal/ui"
)

// questionsKey names the board's single cached query.
const questionsKey = "questions"

// Options configure the board application.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/qaboard/prefs.toml
	RefreshEvery time.Duration // overrides refresh_interval when positive
}

// Run boots the board TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	restoreLog := redirectLog(cfg.LogPath)
	defer restoreLog()

	client, err := gateway.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init gateway client: %w", err)
	}
	joinURL, err := joinlink.SessionURL(cfg.SessionURL)
	if err != nil {
		return err
	}
	sampler, err := health.NewSampler(cfg.Health, client)
	if err != nil {
		return err
	}
	if closer, ok := sampler.(io.Closer); ok {
		defer closer.Close()
	}

	cache := state.NewCache(ctx, questionsKey, client)
	mutations := mutation.New(client, cache)
	monitor := health.NewMonitor(sampler, health.DefaultInterval)
	tracker := highlight.New(highlight.DefaultWindow)

	interval := cfg.RefreshInterval
	if opts.RefreshEvery > 0 {
		interval = opts.RefreshEvery
	}
	StartRefresher(ctx, cache, interval)

	log.Printf("board starting: api=%s health=%s refresh=%v", client.BaseURL(), cfg.Health, interval)

	return ui.Run(ui.Options{
		Context:     ctx,
		Cache:       cache,
		Mutations:   mutations,
		Monitor:     monitor,
		Highlight:   tracker,
		SessionName: cfg.SessionName,
		JoinURL:     joinURL,
		Location:    userPrefs.Location(),
		Prefs:       userPrefs,
		PrefsPath:   opts.PrefsPath,
	})
}

// PrintJoinLink writes the session link and its QR code to w and optionally
// copies the link to the clipboard.
func PrintJoinLink(w io.Writer, opts Options, copyLink bool) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	link, err := joinlink.SessionURL(cfg.SessionURL)
	if err != nil {
		return err
	}
	qr, err := joinlink.RenderQR(link)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, qr)
	fmt.Fprintln(w, link)

	if copyLink {
		if err := joinlink.Copy(link); err != nil {
			if errors.Is(err, joinlink.ErrClipboardUnavailable) {
				fmt.Fprintln(w, "clipboard unavailable; copy the link above")
				return nil
			}
			return err
		}
		fmt.Fprintln(w, "link copied to clipboard")
	}
	return nil
}

// redirectLog sends the standard logger to path while the TUI owns the
// terminal. Logging is discarded when the file cannot be opened.
func redirectLog(path string) func() {
	prev := log.Writer()
	restore := func() { log.SetOutput(prev) }

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.SetOutput(io.Discard)
		return restore
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return restore
	}
	log.SetOutput(f)
	return func() {
		restore()
		_ = f.Close()
	}
}
