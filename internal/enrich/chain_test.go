package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChainConfig(t *testing.T) {
	c := DefaultChainConfig()
	assert.True(t, c.Coordinates.Wikidata)
	assert.True(t, c.Coordinates.Geocoder)
	assert.True(t, c.MainImage.Wikidata)
	assert.True(t, c.MainImage.Wikipedia)
	assert.True(t, c.Gallery.Commons)
	assert.True(t, c.Gallery.ReuseMainImage)
}

func TestLoadChainConfig(t *testing.T) {
	yaml := `
enrich:
  coordinates:
    wikidata: true
    geocoder: false
  main_image:
    wikidata: true
    wikipedia: true
  gallery:
    commons: true
    reuse_main_image: false
`
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	c, err := LoadChainConfig(path)
	require.NoError(t, err)
	assert.True(t, c.Coordinates.Wikidata)
	assert.False(t, c.Coordinates.Geocoder)
	assert.True(t, c.MainImage.Wikipedia)
	assert.False(t, c.Gallery.ReuseMainImage)
}

func TestLoadChainConfigEmptyPath(t *testing.T) {
	c, err := LoadChainConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultChainConfig(), c)
}

func TestLoadChainConfigFileNotFound(t *testing.T) {
	_, err := LoadChainConfig("/nonexistent/chain.yaml")
	assert.Error(t, err)
}
