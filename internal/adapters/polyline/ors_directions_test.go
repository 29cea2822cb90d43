package polyline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestORSDirectionsCompute(t *testing.T) {
	var got directionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "ors-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"routes":[{"geometry":"geom"}]}`))
	}))
	defer srv.Close()

	o, err := NewORSDirectionsProvider("ors-key")
	require.NoError(t, err)
	o.baseURL = srv.URL
	o.client.backoff = time.Millisecond

	pl, err := o.Compute(context.Background(), depotRoute)
	require.NoError(t, err)
	assert.Equal(t, "geom", pl)

	require.Len(t, got.Coordinates, len(depotRoute))
	// ORS expects [lng, lat]
	assert.Equal(t, []float64{24.5223398, 46.517151}, got.Coordinates[0])
}

func TestORSDirectionsRequiresKey(t *testing.T) {
	_, err := NewORSDirectionsProvider("")
	assert.Error(t, err)
}
