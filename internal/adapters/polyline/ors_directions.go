package polyline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"time"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// ORSDirectionsProvider implements PolylineProvider using the
// OpenRouteService directions endpoint. The returned geometry is the encoded
// polyline ORS produces by default.
type ORSDirectionsProvider struct {
	client  *httpClient
	baseURL string
	profile string
}

func NewORSDirectionsProvider(apiKey string) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSDirectionsProvider{
		client:  newHTTPClient(10*time.Second, map[string]string{"Authorization": apiKey}),
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
	}, nil
}

func (o *ORSDirectionsProvider) Compute(ctx context.Context, waypoints []domain.Coordinates) (_ string, err error) {
	defer obs.Time(ctx, "polyline.ors.Compute")(&err)

	if len(waypoints) < 2 {
		return "", fmt.Errorf("ors directions: need at least 2 waypoints, got %d", len(waypoints))
	}

	coords := make([][]float64, 0, len(waypoints))
	for _, c := range waypoints {
		coords = append(coords, c.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return "", fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)
	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return "", fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return "", fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 || dr.Routes[0].Geometry == "" {
		return "", errors.New("directions: response has no route geometry")
	}

	return dr.Routes[0].Geometry, nil
}
