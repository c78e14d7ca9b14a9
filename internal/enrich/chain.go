package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ChainConfig controls which fallback tiers the orchestrator may use per
// missing field. Every tier is enabled by default; a YAML file can switch
// individual sources off.
type ChainConfig struct {
	Coordinates CoordinateChain `yaml:"coordinates"`
	MainImage   MainImageChain  `yaml:"main_image"`
	Gallery     GalleryChain    `yaml:"gallery"`
}

// CoordinateChain orders the coordinate fallback tiers.
type CoordinateChain struct {
	Wikidata bool `yaml:"wikidata"`
	Geocoder bool `yaml:"geocoder"`
}

// MainImageChain orders the main image fallback tiers.
type MainImageChain struct {
	Wikidata  bool `yaml:"wikidata"`
	Wikipedia bool `yaml:"wikipedia"`
}

// GalleryChain orders the gallery fallback tiers.
type GalleryChain struct {
	Commons        bool `yaml:"commons"`
	ReuseMainImage bool `yaml:"reuse_main_image"`
}

// DefaultChainConfig enables every tier.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		Coordinates: CoordinateChain{Wikidata: true, Geocoder: true},
		MainImage:   MainImageChain{Wikidata: true, Wikipedia: true},
		Gallery:     GalleryChain{Commons: true, ReuseMainImage: true},
	}
}

// LoadChainConfig reads chain configuration from a YAML file. An empty path
// returns the defaults.
func LoadChainConfig(path string) (*ChainConfig, error) {
	if path == "" {
		return DefaultChainConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read chain config %s", path)
	}

	// The YAML has a top-level "enrich" key.
	var wrapper struct {
		Enrich ChainConfig `yaml:"enrich"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse chain config")
	}
	return &wrapper.Enrich, nil
}
