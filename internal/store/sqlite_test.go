package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritage-atlas/heritage-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func ptr(f float64) *float64 { return &f }

func TestInsertAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	year := 1983
	enriched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &model.HeritageRecord{
		Name:             "Taj Mahal",
		Country:          "India",
		Region:           "Asia and the Pacific",
		Category:         "Cultural",
		ShortDescription: "An immense mausoleum of white marble.",
		MainImageURL:     "https://img/taj.jpg",
		GalleryImageURLs: "https://img/a.jpg;https://img/b.jpg",
		Latitude:         ptr(27.175),
		Longitude:        ptr(78.042),
		ImageLicense:     "CC BY-SA 4.0",
		DataSource:       model.SourceWikidata,
		EnrichedAt:       &enriched,
		WikidataQID:      "Q9141",
		CommonsCategory:  "Taj Mahal",
		YearInscribed:    &year,
	}

	require.NoError(t, st.Insert(ctx, rec))
	require.NotZero(t, rec.ID)

	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taj Mahal", got.Name)
	assert.Equal(t, "India", got.Country)
	assert.Equal(t, model.SourceWikidata, got.DataSource)
	assert.Equal(t, "Q9141", got.WikidataQID)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 27.175, *got.Latitude)
	require.NotNil(t, got.YearInscribed)
	assert.Equal(t, 1983, *got.YearInscribed)
	require.NotNil(t, got.EnrichedAt)
	assert.True(t, got.EnrichedAt.Equal(enriched))
}

func TestGetNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Get(context.Background(), 9999)
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := &model.HeritageRecord{Name: "Petra", Country: "Jordan"}
	require.NoError(t, st.Insert(ctx, rec))

	rec.MainImageURL = "https://img/petra.jpg"
	rec.SetCoordinates(30.328, 35.444)
	rec.DataSource = model.SourceGeocoder
	require.NoError(t, st.Save(ctx, rec))

	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/petra.jpg", got.MainImageURL)
	assert.Equal(t, model.SourceGeocoder, got.DataSource)
	require.NotNil(t, got.Longitude)
	assert.Equal(t, 35.444, *got.Longitude)
}

func TestSaveMissingRecord(t *testing.T) {
	st := newTestStore(t)
	err := st.Save(context.Background(), &model.HeritageRecord{ID: 42, Name: "ghost"})
	assert.Error(t, err)
}

func TestCountAndDeleteAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, st.Insert(ctx, &model.HeritageRecord{Name: name}))
	}

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, st.DeleteAll(ctx))
	n, err = st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFindGapRecords(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	complete := &model.HeritageRecord{
		Name:             "Complete",
		MainImageURL:     "https://img/x.jpg",
		GalleryImageURLs: "https://img/y.jpg",
		Latitude:         ptr(1.0),
		Longitude:        ptr(2.0),
	}
	noImage := &model.HeritageRecord{
		Name:             "NoImage",
		GalleryImageURLs: "https://img/y.jpg",
		Latitude:         ptr(1.0),
		Longitude:        ptr(2.0),
	}
	zeroCoords := &model.HeritageRecord{
		Name:             "ZeroCoords",
		MainImageURL:     "https://img/x.jpg",
		GalleryImageURLs: "https://img/y.jpg",
		Latitude:         ptr(0),
		Longitude:        ptr(0),
	}
	for _, rec := range []*model.HeritageRecord{complete, noImage, zeroCoords} {
		require.NoError(t, st.Insert(ctx, rec))
	}

	gaps, err := st.FindGapRecords(ctx)
	require.NoError(t, err)
	require.Len(t, gaps, 2)

	assert.Equal(t, "NoImage", gaps[0].Record.Name)
	assert.True(t, gaps[0].Gaps.NeedsMainImage)
	assert.False(t, gaps[0].Gaps.NeedsGallery)
	assert.False(t, gaps[0].Gaps.NeedsCoordinates)

	assert.Equal(t, "ZeroCoords", gaps[1].Record.Name)
	assert.True(t, gaps[1].Gaps.NeedsCoordinates)
	assert.False(t, gaps[1].Gaps.NeedsMainImage)
}

func TestCountGaps(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, &model.HeritageRecord{Name: "a"}))
	require.NoError(t, st.Insert(ctx, &model.HeritageRecord{
		Name:         "b",
		MainImageURL: "https://img/b.jpg",
		Latitude:     ptr(1.0),
		Longitude:    ptr(2.0),
	}))

	gc, err := st.CountGaps(ctx)
	require.NoError(t, err)
	assert.Equal(t, GapCounts{MainImage: 1, Gallery: 2, Coordinates: 1}, gc)
}

func TestSweepLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sweep := &model.Sweep{
		ID:          "sweep-1",
		Targets:     5,
		MissingMain: 3,
	}
	require.NoError(t, st.CreateSweep(ctx, sweep))
	assert.Equal(t, model.SweepStatusRunning, sweep.Status)
	assert.False(t, sweep.StartedAt.IsZero())

	sweep.Status = model.SweepStatusComplete
	sweep.ReportPath = "/tmp/missing_report.csv"
	require.NoError(t, st.CompleteSweep(ctx, sweep))
	require.NotNil(t, sweep.FinishedAt)

	got, err := st.LastSweep(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sweep-1", got.ID)
	assert.Equal(t, model.SweepStatusComplete, got.Status)
	assert.Equal(t, 5, got.Targets)
	assert.Equal(t, "/tmp/missing_report.csv", got.ReportPath)
	assert.NotNil(t, got.FinishedAt)
}

func TestLastSweepEmpty(t *testing.T) {
	st := newTestStore(t)
	got, err := st.LastSweep(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompleteSweepMissing(t *testing.T) {
	st := newTestStore(t)
	err := st.CompleteSweep(context.Background(), &model.Sweep{ID: "nope"})
	assert.Error(t, err)
}
