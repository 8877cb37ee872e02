package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/pipeline"
	"github.com/sells-group/showtimes-cli/internal/site"
	"github.com/sells-group/showtimes-cli/internal/store"
)

// session is a browser.Session the command owns and must close.
type session interface {
	browser.Session
	Close() error
}

func initStore(ctx context.Context) (store.Ledger, error) {
	var st store.Ledger
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		st = s
	case "memory":
		st = store.NewMemory()
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initCatalogs() *catalog.XLSXStore {
	return catalog.NewXLSXStore(cfg.Catalog.CinemasPath, cfg.Catalog.MoviesPath)
}

func initRegistry() (*site.Registry, error) {
	return site.NewRegistryFromConfig(cfg.Sites.File)
}

func pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Navigation:          cfg.Navigation,
		Scroll:              cfg.Scroll,
		SimilarityThreshold: cfg.Resolve.SimilarityThreshold,
	}
}

// openSession replays saved pages when snapshotDir is set and drives a
// live Chrome otherwise.
func openSession(ctx context.Context, snapshotDir string) (session, error) {
	if snapshotDir != "" {
		snap, err := browser.LoadSnapshotDir(snapshotDir)
		if err != nil {
			return nil, err
		}
		return snap, nil
	}
	live, err := browser.Launch(ctx, browser.LiveConfig{
		RemoteURL:    cfg.Browser.RemoteURL,
		Headless:     cfg.Browser.Headless,
		Stealth:      cfg.Browser.Stealth,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	})
	if err != nil {
		return nil, err
	}
	return live, nil
}
