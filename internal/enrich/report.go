package enrich

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/heritage-atlas/heritage-cli/internal/model"
)

// reportFilename is the well-known name of the gap report artifact.
const reportFilename = "missing_report.csv"

// Report accumulates one row per processed gap record. The booleans reflect
// the record's gap state at classification time, before any enrichment write.
type Report struct {
	rows [][]string
}

// NewReport creates an empty gap report.
func NewReport() *Report {
	return &Report{}
}

// Add appends a row for a record about to be processed.
func (r *Report) Add(name, country string, gaps model.GapFlags) {
	r.rows = append(r.rows, []string{
		name,
		country,
		strconv.FormatBool(gaps.NeedsMainImage),
		strconv.FormatBool(gaps.NeedsGallery),
		strconv.FormatBool(gaps.NeedsCoordinates),
	})
}

// Len returns the number of accumulated rows.
func (r *Report) Len() int {
	return len(r.rows)
}

// WriteFile writes the accumulated rows as a CSV artifact into dir and
// returns the written path. Field values containing commas are quoted.
func (r *Report) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, reportFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "country", "needsMainImage", "needsGallery", "needsCoordinates"}); err != nil {
		return "", eris.Wrap(err, "report: write header")
	}
	if err := w.WriteAll(r.rows); err != nil {
		return "", eris.Wrap(err, "report: write rows")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "report: flush")
	}
	return path, nil
}
