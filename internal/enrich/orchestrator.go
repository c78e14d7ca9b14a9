// Package enrich drives the background enrichment sweep: it scans the store
// for records missing images, galleries, or coordinates, resolves each
// against Wikidata, falls back to Wikimedia Commons, Wikipedia, and an
// approximate geocoder, and writes the merged results back record by record.
package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/heritage-atlas/heritage-cli/internal/model"
	"github.com/heritage-atlas/heritage-cli/internal/store"
	"github.com/heritage-atlas/heritage-cli/pkg/commons"
	"github.com/heritage-atlas/heritage-cli/pkg/geocode"
	"github.com/heritage-atlas/heritage-cli/pkg/wikidata"
)

// WikidataClient is the structured-data source: identifier search plus the
// entity claim bundle.
type WikidataClient interface {
	SearchEntities(ctx context.Context, query string) ([]wikidata.SearchEntity, error)
	FetchEntityBundle(ctx context.Context, qid string) (wikidata.Bundle, error)
}

// CommonsClient resolves image filenames and lists category members.
type CommonsClient interface {
	FetchImageInfo(ctx context.Context, filename string) (*commons.ImageInfo, error)
	CategoryImages(ctx context.Context, category string) ([]string, error)
}

// WikipediaClient is the free-text image fallback.
type WikipediaClient interface {
	FallbackImage(ctx context.Context, query string) (string, error)
}

// Geocoder is the approximate coordinate fallback.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

// Sources bundles the external clients the orchestrator consults.
type Sources struct {
	Wikidata  WikidataClient
	Commons   CommonsClient
	Wikipedia WikipediaClient
	Geocoder  Geocoder
}

// Orchestrator owns one process lifetime of enrichment state: the resolution
// caches, the in-flight record set, and the fallback chain configuration.
// Records are processed strictly sequentially within a sweep.
type Orchestrator struct {
	store   store.Store
	sources Sources
	chain   *ChainConfig

	// Process-lifetime memoization across records and sweeps.
	qidCache      *gocache.Cache // name|country -> qid
	categoryCache *gocache.Cache // qid -> commons category
	imageCache    *gocache.Cache // qid -> *commons.ImageInfo

	mu       sync.Mutex
	inFlight map[int64]struct{}

	reportDir string
	now       func() time.Time // injectable for testing
}

// NewOrchestrator creates an orchestrator with empty caches.
func NewOrchestrator(st store.Store, sources Sources, chain *ChainConfig, reportDir string) *Orchestrator {
	if chain == nil {
		chain = DefaultChainConfig()
	}
	return &Orchestrator{
		store:         st,
		sources:       sources,
		chain:         chain,
		qidCache:      gocache.New(gocache.NoExpiration, 0),
		categoryCache: gocache.New(gocache.NoExpiration, 0),
		imageCache:    gocache.New(gocache.NoExpiration, 0),
		inFlight:      make(map[int64]struct{}),
		reportDir:     reportDir,
		now:           time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (o *Orchestrator) WithNow(fn func() time.Time) *Orchestrator {
	o.now = fn
	return o
}

// tryMarkInFlight reserves a record for this sweep. A record already being
// worked on is skipped, not queued.
func (o *Orchestrator) tryMarkInFlight(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[id]; busy {
		return false
	}
	o.inFlight[id] = struct{}{}
	return true
}

func (o *Orchestrator) clearInFlight(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, id)
}

// Sweep runs one complete enrichment pass over the current gap records.
// Only a failure enumerating the gap set is fatal; every per-record failure
// is logged and the sweep advances.
func (o *Orchestrator) Sweep(ctx context.Context) (*model.Sweep, error) {
	targets, err := o.store.FindGapRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: find gap records")
	}

	sweep := &model.Sweep{
		ID:        uuid.New().String(),
		Status:    model.SweepStatusRunning,
		StartedAt: o.now().UTC(),
	}
	log := zap.L().With(zap.String("sweep_id", sweep.ID))

	if len(targets) == 0 {
		log.Info("enrich: no gap records")
		sweep.Status = model.SweepStatusComplete
		if err := o.store.CreateSweep(ctx, sweep); err != nil {
			log.Warn("enrich: record sweep failed", zap.Error(err))
		} else if err := o.store.CompleteSweep(ctx, sweep); err != nil {
			log.Warn("enrich: complete sweep failed", zap.Error(err))
		}
		return sweep, nil
	}

	log.Info("enrich: sweep starting", zap.Int("targets", len(targets)))
	if err := o.store.CreateSweep(ctx, sweep); err != nil {
		// Bookkeeping only; the sweep itself proceeds.
		log.Warn("enrich: record sweep failed", zap.Error(err))
	}

	report := NewReport()
	for i := range targets {
		if ctx.Err() != nil {
			log.Warn("enrich: sweep cancelled", zap.Int("processed", i))
			break
		}

		rec := targets[i].Record
		gaps := targets[i].Gaps

		if !o.tryMarkInFlight(rec.ID) {
			log.Debug("enrich: record in flight, skipping", zap.Int64("id", rec.ID))
			continue
		}

		sweep.Targets++
		if gaps.NeedsMainImage {
			sweep.MissingMain++
		}
		if gaps.NeedsGallery {
			sweep.MissingGallery++
		}
		if gaps.NeedsCoordinates {
			sweep.MissingCoords++
		}
		report.Add(rec.Name, rec.Country, gaps)

		o.processRecord(ctx, log, &rec, gaps)
		o.clearInFlight(rec.ID)
	}

	path, err := report.WriteFile(o.reportDir)
	if err != nil {
		log.Warn("enrich: write report failed", zap.Error(err))
	} else {
		sweep.ReportPath = path
		log.Info("enrich: report written", zap.String("path", path))
	}

	// Diagnostic counts captured at classification time, not re-measured.
	log.Info("enrich: sweep complete",
		zap.Int("targets", sweep.Targets),
		zap.Int("missing_main", sweep.MissingMain),
		zap.Int("missing_gallery", sweep.MissingGallery),
		zap.Int("missing_coords", sweep.MissingCoords),
	)

	sweep.Status = model.SweepStatusComplete
	if err := o.store.CompleteSweep(ctx, sweep); err != nil {
		log.Warn("enrich: complete sweep failed", zap.Error(err))
	}
	return sweep, nil
}

// processRecord drives the fallback chain for one record and saves it once.
// Any single source failure yields an absent result for that lookup only.
func (o *Orchestrator) processRecord(ctx context.Context, log *zap.Logger, rec *model.HeritageRecord, gaps model.GapFlags) {
	log = log.With(zap.Int64("id", rec.ID), zap.String("name", rec.Name))

	// Resolve the Wikidata identifier if the record lacks one; once resolved
	// it is persisted with the record so later sweeps skip re-resolution.
	qid := rec.WikidataQID
	if qid == "" {
		qid = o.resolveQID(ctx, log, rec.Name, rec.Country)
		if qid != "" {
			rec.WikidataQID = qid
		}
	}

	var bundle wikidata.Bundle
	var bundleImage *commons.ImageInfo
	if qid != "" {
		bundle = o.fetchBundle(ctx, log, qid)
		if bundle.CommonsCategory != "" {
			rec.CommonsCategory = bundle.CommonsCategory
		}
		if gaps.NeedsMainImage && bundle.ImageFilename != "" {
			bundleImage = o.resolveImageInfo(ctx, log, qid, bundle.ImageFilename)
		}
	}

	now := o.now().UTC()

	// Coordinates: bundle first, then the approximate geocoder. No further
	// fallback; coordinates stay absent on a miss.
	if gaps.NeedsCoordinates {
		switch {
		case o.chain.Coordinates.Wikidata && bundle.Coordinates != nil:
			rec.SetCoordinates(bundle.Coordinates.Lat, bundle.Coordinates.Lon)
			rec.EnrichedAt = &now
			rec.DataSource = model.SourceWikidata
		case o.chain.Coordinates.Geocoder:
			if res := o.geocodeApproximate(ctx, log, rec.Name, rec.Country); res != nil {
				rec.SetCoordinates(res.Latitude, res.Longitude)
				rec.EnrichedAt = &now
				rec.DataSource = model.SourceGeocoder
			}
		}
	}

	// Main image: bundle image first, then the encyclopedia fallback, whose
	// license is unknown.
	if gaps.NeedsMainImage {
		switch {
		case o.chain.MainImage.Wikidata && bundleImage != nil:
			rec.MainImageURL = bundleImage.URL
			rec.ImageLicense = bundleImage.License
			rec.EnrichedAt = &now
			rec.DataSource = model.SourceWikidata
		case o.chain.MainImage.Wikipedia:
			if url := o.fallbackImage(ctx, log, rec.Name, rec.Country); url != "" {
				rec.MainImageURL = url
				rec.EnrichedAt = &now
				rec.DataSource = model.SourceWikipedia
			}
		}
	}

	// Gallery: category members, else reuse the main image as a one-element
	// gallery. The reuse path copies provenance already on the record, so it
	// sets neither EnrichedAt nor DataSource.
	if gaps.NeedsGallery {
		if o.chain.Gallery.Commons && rec.CommonsCategory != "" {
			if imgs := o.categoryImages(ctx, log, rec.CommonsCategory); len(imgs) > 0 {
				rec.GalleryImageURLs = strings.Join(imgs, ";")
			}
		}
		if rec.GalleryImageURLs == "" && o.chain.Gallery.ReuseMainImage && rec.MainImageURL != "" {
			rec.GalleryImageURLs = rec.MainImageURL
		}
	}

	// One write per record keeps partial sweep progress durable. A save
	// failure drops this record's changes and the sweep continues.
	if err := o.store.Save(ctx, rec); err != nil {
		log.Warn("enrich: save failed", zap.Error(err))
	}
}

// resolveQID memoizes identifier resolution by lowercase name|country.
func (o *Orchestrator) resolveQID(ctx context.Context, log *zap.Logger, name, country string) string {
	key := strings.ToLower(name) + "|" + strings.ToLower(country)
	if cached, ok := o.qidCache.Get(key); ok {
		return cached.(string)
	}

	candidates, err := o.sources.Wikidata.SearchEntities(ctx, name+" "+country)
	if err != nil {
		log.Debug("enrich: identifier search failed", zap.Error(err))
		return ""
	}
	winner := wikidata.PickCandidate(candidates)
	if winner == nil {
		return ""
	}
	o.qidCache.Set(key, winner.ID, gocache.NoExpiration)
	return winner.ID
}

// fetchBundle fetches the claim bundle, consulting the category cache so a
// repeated identifier resolves without a second entity fetch of the category.
func (o *Orchestrator) fetchBundle(ctx context.Context, log *zap.Logger, qid string) wikidata.Bundle {
	bundle, err := o.sources.Wikidata.FetchEntityBundle(ctx, qid)
	if err != nil {
		log.Debug("enrich: bundle fetch failed", zap.String("qid", qid), zap.Error(err))
		if cached, ok := o.categoryCache.Get(qid); ok {
			return wikidata.Bundle{CommonsCategory: cached.(string)}
		}
		return wikidata.Bundle{}
	}
	if bundle.CommonsCategory != "" {
		o.categoryCache.Set(qid, bundle.CommonsCategory, gocache.NoExpiration)
	}
	return bundle
}

// resolveImageInfo memoizes filename-to-URL resolution by identifier.
func (o *Orchestrator) resolveImageInfo(ctx context.Context, log *zap.Logger, qid, filename string) *commons.ImageInfo {
	if cached, ok := o.imageCache.Get(qid); ok {
		return cached.(*commons.ImageInfo)
	}

	info, err := o.sources.Commons.FetchImageInfo(ctx, filename)
	if err != nil {
		log.Debug("enrich: image info failed", zap.String("filename", filename), zap.Error(err))
		return nil
	}
	if info == nil {
		return nil
	}
	o.imageCache.Set(qid, info, gocache.NoExpiration)
	return info
}

func (o *Orchestrator) categoryImages(ctx context.Context, log *zap.Logger, category string) []string {
	imgs, err := o.sources.Commons.CategoryImages(ctx, category)
	if err != nil {
		log.Debug("enrich: category images failed", zap.String("category", category), zap.Error(err))
		return nil
	}
	return imgs
}

func (o *Orchestrator) fallbackImage(ctx context.Context, log *zap.Logger, name, country string) string {
	url, err := o.sources.Wikipedia.FallbackImage(ctx, name+" "+country)
	if err != nil {
		log.Debug("enrich: encyclopedia fallback failed", zap.Error(err))
		return ""
	}
	return url
}

func (o *Orchestrator) geocodeApproximate(ctx context.Context, log *zap.Logger, name, country string) *geocode.Result {
	res, err := o.sources.Geocoder.Geocode(ctx, name+", "+country)
	if err != nil {
		log.Debug("enrich: geocode fallback failed", zap.Error(err))
		return nil
	}
	return res
}
