package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritage-atlas/heritage-cli/internal/model"
)

func TestReportWriteFile(t *testing.T) {
	r := NewReport()
	r.Add("Petra", "Jordan", model.GapFlags{NeedsMainImage: true})
	r.Add("Taj Mahal", "India", model.GapFlags{NeedsGallery: true, NeedsCoordinates: true})
	require.Equal(t, 2, r.Len())

	dir := t.TempDir()
	path, err := r.WriteFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "missing_report.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"name,country,needsMainImage,needsGallery,needsCoordinates\n"+
			"Petra,Jordan,true,false,false\n"+
			"Taj Mahal,India,false,true,true\n",
		string(data))
}

func TestReportQuotesCommaFields(t *testing.T) {
	r := NewReport()
	r.Add("Rock Islands Southern Lagoon", "Palau, Micronesia", model.GapFlags{NeedsCoordinates: true})

	path, err := r.WriteFile(t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `Rock Islands Southern Lagoon,"Palau, Micronesia",false,false,true`)
}

func TestReportEmpty(t *testing.T) {
	r := NewReport()
	path, err := r.WriteFile(t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,country,needsMainImage,needsGallery,needsCoordinates\n", string(data))
}
