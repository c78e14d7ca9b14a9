package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritage-atlas/heritage-cli/internal/store"
)

const sampleCSV = `Name EN,States Names,Region,Coordinates,Category,Short Description EN,Main Image,Images,Date inscribed
Petra,Jordan,Arab States,"30.328, 35.444",Cultural,Ancient city carved in rock.,https://img/petra.jpg,https://img/a.jpg;https://img/b.jpg,1985
Taj Mahal,India,Asia and the Pacific,,Cultural,White marble mausoleum.,,,1983-12-09
,,,,,,,,
Angkor,Cambodia,Asia and the Pacific,"13.412, 103.867",Cultural,Temple complex.,,,
`

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whc.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportIfEmpty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	path := writeSample(t, sampleCSV)

	n, err := New(st).ImportIfEmpty(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n) // the nameless row is skipped

	gaps, err := st.FindGapRecords(ctx)
	require.NoError(t, err)

	var byName = map[string]int{}
	for i, g := range gaps {
		byName[g.Record.Name] = i
	}

	// Petra is complete and does not appear in the gap set.
	assert.NotContains(t, byName, "Petra")

	taj := gaps[byName["Taj Mahal"]]
	assert.True(t, taj.Gaps.NeedsMainImage)
	assert.True(t, taj.Gaps.NeedsGallery)
	assert.True(t, taj.Gaps.NeedsCoordinates)
	require.NotNil(t, taj.Record.YearInscribed)
	assert.Equal(t, 1983, *taj.Record.YearInscribed)
	assert.Equal(t, "India", taj.Record.Country)

	angkor := gaps[byName["Angkor"]]
	assert.False(t, angkor.Gaps.NeedsCoordinates)
	require.NotNil(t, angkor.Record.Latitude)
	assert.Equal(t, 13.412, *angkor.Record.Latitude)
	assert.Nil(t, angkor.Record.YearInscribed)
}

func TestImportIfEmptySkipsPopulatedStore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	path := writeSample(t, sampleCSV)

	im := New(st)
	n, err := im.ImportIfEmpty(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = im.ImportIfEmpty(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	total, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestReimport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	path := writeSample(t, sampleCSV)

	im := New(st)
	_, err := im.ImportIfEmpty(ctx, path)
	require.NoError(t, err)

	n, err := im.Reimport(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	total, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestImportMissingFile(t *testing.T) {
	st := newTestStore(t)
	_, err := New(st).ImportIfEmpty(context.Background(), "/nonexistent/whc.csv")
	assert.Error(t, err)
}

func TestImportEmptyFile(t *testing.T) {
	st := newTestStore(t)
	path := writeSample(t, "")

	n, err := New(st).ImportIfEmpty(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, ok := parseCoordinates("30.328, 35.444")
	require.True(t, ok)
	assert.Equal(t, 30.328, lat)
	assert.Equal(t, 35.444, lon)

	_, _, ok = parseCoordinates("")
	assert.False(t, ok)

	_, _, ok = parseCoordinates("30.328")
	assert.False(t, ok)

	_, _, ok = parseCoordinates("north, south")
	assert.False(t, ok)
}

func TestExtractYear(t *testing.T) {
	year, ok := extractYear("1985")
	require.True(t, ok)
	assert.Equal(t, 1985, year)

	year, ok = extractYear("2005-07-15")
	require.True(t, ok)
	assert.Equal(t, 2005, year)

	_, ok = extractYear("")
	assert.False(t, ok)

	_, ok = extractYear("no year here")
	assert.False(t, ok)
}
