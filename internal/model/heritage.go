// Package model defines the heritage site record and its gap classification.
package model

import (
	"strings"
	"time"
)

// DataSource tags the provenance of the most recent enrichment write.
type DataSource string

const (
	SourceWikidata  DataSource = "wikidata"
	SourceWikipedia DataSource = "wikipedia"
	SourceGeocoder  DataSource = "clgeocoder"
)

// HeritageRecord is one row per UNESCO heritage site.
//
// Latitude/Longitude are pointers because the CSV leaves some sites without
// coordinates; a stored (0,0) pair is treated as unset, never as a real
// location.
type HeritageRecord struct {
	ID               int64
	Name             string
	Country          string
	Region           string
	Category         string
	ShortDescription string
	MainImageURL     string
	GalleryImageURLs string // semicolon-joined list
	Latitude         *float64
	Longitude        *float64
	ImageLicense     string
	DataSource       DataSource
	EnrichedAt       *time.Time
	WikidataQID      string
	CommonsCategory  string
	YearInscribed    *int
	IsFavorite       bool
	IsVisited        bool
}

// GapFlags records which enrichable fields a record is missing.
type GapFlags struct {
	NeedsMainImage   bool
	NeedsGallery     bool
	NeedsCoordinates bool
}

// Any reports whether at least one field is missing.
func (g GapFlags) Any() bool {
	return g.NeedsMainImage || g.NeedsGallery || g.NeedsCoordinates
}

// HasCoordinates reports whether the record carries a usable coordinate pair.
func (r *HeritageRecord) HasCoordinates() bool {
	if r.Latitude == nil || r.Longitude == nil {
		return false
	}
	return !(*r.Latitude == 0 && *r.Longitude == 0)
}

// Gallery splits the semicolon-joined gallery list, dropping empty entries.
func (r *HeritageRecord) Gallery() []string {
	if r.GalleryImageURLs == "" {
		return nil
	}
	parts := strings.Split(r.GalleryImageURLs, ";")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// SetCoordinates stores a coordinate pair on the record.
func (r *HeritageRecord) SetCoordinates(lat, lon float64) {
	r.Latitude = &lat
	r.Longitude = &lon
}

// Classify computes the gap flags for a record. It is a pure function of the
// current field values and is never persisted.
func Classify(r *HeritageRecord) GapFlags {
	return GapFlags{
		NeedsMainImage:   r.MainImageURL == "",
		NeedsGallery:     r.GalleryImageURLs == "",
		NeedsCoordinates: !r.HasCoordinates(),
	}
}
