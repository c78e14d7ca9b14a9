// Package importer loads the bundled UNESCO World Heritage CSV into the
// record store.
package importer

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
	"github.com/heritage-atlas/heritage-cli/internal/model"
	"github.com/heritage-atlas/heritage-cli/internal/store"
)

// Column headers in the UNESCO export.
const (
	colName          = "Name EN"
	colCountry       = "States Names"
	colRegion        = "Region"
	colCoordinates   = "Coordinates"
	colCategory      = "Category"
	colDescription   = "Short Description EN"
	colMainImage     = "Main Image"
	colGalleryImages = "Images"
	colDateInscribed = "Date inscribed"
)

// yearPattern matches the first plausible 4-digit inscription year inside a
// free-form date string such as "1997" or "1997-2000".
var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// Importer maps UNESCO CSV rows onto heritage records.
type Importer struct {
	store store.Store
}

// New creates an importer writing to the given store.
func New(st store.Store) *Importer {
	return &Importer{store: st}
}

// ImportIfEmpty imports the CSV only when the store holds no records yet,
// returning the number of inserted rows (zero when skipped).
func (im *Importer) ImportIfEmpty(ctx context.Context, path string) (int, error) {
	n, err := im.store.Count(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "import: count records")
	}
	if n > 0 {
		zap.L().Info("import: store already populated, skipping", zap.Int("records", n))
		return 0, nil
	}
	return im.importFile(ctx, path)
}

// Reimport wipes all records and imports the CSV from scratch.
func (im *Importer) Reimport(ctx context.Context, path string) (int, error) {
	if err := im.store.DeleteAll(ctx); err != nil {
		return 0, eris.Wrap(err, "import: wipe records")
	}
	return im.importFile(ctx, path)
}

func (im *Importer) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "import: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	g, gctx := errgroup.WithContext(ctx)
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(gctx, f, fetcher.CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var inserted int
	g.Go(func() error {
		var cols map[string]int
		select {
		case header, ok := <-headerCh:
			if !ok {
				return nil // empty file
			}
			cols = indexColumns(header)
		case <-gctx.Done():
			return gctx.Err()
		}

		for row := range rows {
			rec := recordFromRow(cols, row)
			if rec.Name == "" {
				continue
			}
			if err := im.store.Insert(gctx, rec); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	g.Go(func() error {
		for err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return inserted, eris.Wrap(err, "import: stream csv")
	}

	zap.L().Info("import: complete", zap.String("path", path), zap.Int("inserted", inserted))
	return inserted, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	return cols
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func recordFromRow(cols map[string]int, row []string) *model.HeritageRecord {
	rec := &model.HeritageRecord{
		Name:             field(cols, row, colName),
		Country:          field(cols, row, colCountry),
		Region:           field(cols, row, colRegion),
		Category:         field(cols, row, colCategory),
		ShortDescription: field(cols, row, colDescription),
		MainImageURL:     field(cols, row, colMainImage),
		GalleryImageURLs: field(cols, row, colGalleryImages),
	}

	if lat, lon, ok := parseCoordinates(field(cols, row, colCoordinates)); ok {
		rec.SetCoordinates(lat, lon)
	}
	if year, ok := extractYear(field(cols, row, colDateInscribed)); ok {
		rec.YearInscribed = &year
	}
	return rec
}

// parseCoordinates parses a "lat, lon" pair from the CSV export.
func parseCoordinates(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// extractYear pulls a 4-digit year out of a free-form inscription date.
func extractYear(s string) (int, bool) {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}
