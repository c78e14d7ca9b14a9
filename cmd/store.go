package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/heritage-atlas/heritage-cli/internal/enrich"
	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
	"github.com/heritage-atlas/heritage-cli/internal/store"
	"github.com/heritage-atlas/heritage-cli/pkg/commons"
	"github.com/heritage-atlas/heritage-cli/pkg/geocode"
	"github.com/heritage-atlas/heritage-cli/pkg/wikidata"
	"github.com/heritage-atlas/heritage-cli/pkg/wikipedia"
)

// openStore opens the configured SQLite database and applies migrations.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// buildOrchestrator wires the shared fetch adapter, the four source clients,
// and the fallback chain config into one orchestrator instance.
func buildOrchestrator(st store.Store) (*enrich.Orchestrator, error) {
	fetch := fetcher.NewClient(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		PaceDelay:    time.Duration(cfg.Fetch.PaceMillis) * time.Millisecond,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	sources := enrich.Sources{
		Wikidata: wikidata.NewClient(fetch,
			wikidata.WithAPIBaseURL(cfg.Wikidata.APIBaseURL),
			wikidata.WithEntityBaseURL(cfg.Wikidata.EntityBaseURL),
			wikidata.WithSearchLimit(cfg.Wikidata.SearchLimit),
		),
		Commons: commons.NewClient(fetch,
			commons.WithAPIBaseURL(cfg.Commons.APIBaseURL),
			commons.WithGalleryLimit(cfg.Commons.GalleryLimit),
		),
		Wikipedia: wikipedia.NewClient(fetch,
			wikipedia.WithAPIBaseURL(cfg.Wikipedia.APIBaseURL),
			wikipedia.WithRestBaseURL(cfg.Wikipedia.RestBaseURL),
		),
		Geocoder: geocode.NewClient(fetch,
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithTimeout(time.Duration(cfg.Geocode.TimeoutSecs)*time.Second),
			geocode.WithPaceDelay(time.Duration(cfg.Geocode.PaceMillis)*time.Millisecond),
		),
	}

	chain, err := enrich.LoadChainConfig(cfg.Enrich.ChainConfigPath)
	if err != nil {
		return nil, eris.Wrap(err, "load chain config")
	}

	return enrich.NewOrchestrator(st, sources, chain, cfg.Report.Dir), nil
}
