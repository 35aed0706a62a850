package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/five82/qaboard/internal/store"
)

// Run opens the store and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.ResetOnStart {
		if err := st.Reset(ctx); err != nil {
			return err
		}
		logger.Printf("cleared questions from %s", cfg.DBPath)
	}

	var archive Archiver
	if cfg.ArchiveDir != "" {
		archive = store.NewArchive(cfg.ArchiveDir)
	}
	srv := New(st, archive, loc, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go srv.RunPruner(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (timezone %s)", cfg.Addr, loc)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
