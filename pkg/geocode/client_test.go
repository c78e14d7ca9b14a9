package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
)

func newTestFetch() *fetcher.Client {
	return fetcher.NewClient(fetcher.Options{Timeout: 5 * time.Second}).
		WithSleep(func(time.Duration) {})
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Petra, Jordan", q.Get("q"))
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "1", q.Get("limit"))
		w.Write([]byte(`[{"lat":"30.3284544","lon":"35.4443622"}]`))
	}))
	defer srv.Close()

	c := NewClient(newTestFetch(), WithBaseURL(srv.URL)).WithSleep(func(time.Duration) {})
	res, err := c.Geocode(context.Background(), "Petra, Jordan")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 30.3284544, res.Latitude)
	assert.Equal(t, 35.4443622, res.Longitude)
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(newTestFetch(), WithBaseURL(srv.URL)).WithSleep(func(time.Duration) {})
	res, err := c.Geocode(context.Background(), "nowhere, nothing")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGeocodeMalformedCoordinate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"not-a-number","lon":"35.4"}]`))
	}))
	defer srv.Close()

	c := NewClient(newTestFetch(), WithBaseURL(srv.URL)).WithSleep(func(time.Duration) {})
	res, err := c.Geocode(context.Background(), "broken")
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestGeocodePacesEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := NewClient(newTestFetch(), WithBaseURL(srv.URL), WithPaceDelay(750*time.Millisecond)).
		WithSleep(func(d time.Duration) { slept = append(slept, d) })

	_, err := c.Geocode(context.Background(), "anywhere")
	require.NoError(t, err)
	require.Len(t, slept, 1)
	assert.Equal(t, 750*time.Millisecond, slept[0])
}

func TestGeocodeTimeoutBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(newTestFetch(), WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond)).
		WithSleep(func(time.Duration) {})
	res, err := c.Geocode(context.Background(), "slow service")
	assert.Error(t, err)
	assert.Nil(t, res)
}
