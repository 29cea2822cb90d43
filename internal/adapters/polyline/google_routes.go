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

// Google Routes caps a single request at 25 intermediate waypoints.
const maxGoogleIntermediates = 25

type googleLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type googleWaypoint struct {
	Location struct {
		LatLng googleLatLng `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin            googleWaypoint   `json:"origin"`
	Destination       googleWaypoint   `json:"destination"`
	Intermediates     []googleWaypoint `json:"intermediates,omitempty"`
	TravelMode        string           `json:"travelMode"`
	RoutingPreference string           `json:"routingPreference"`
}

type computeRoutesResponse struct {
	Routes []struct {
		Polyline struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

// GoogleRoutesProvider implements PolylineProvider with the Google Routes
// API (directions/v2:computeRoutes), driving with traffic awareness.
type GoogleRoutesProvider struct {
	client  *httpClient
	baseURL string
}

func NewGoogleRoutesProvider(apiKey string) (*GoogleRoutesProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google routes api key is empty")
	}

	return &GoogleRoutesProvider{
		client: newHTTPClient(10*time.Second, map[string]string{
			"X-Goog-Api-Key":   apiKey,
			"X-Goog-FieldMask": "routes.polyline.encodedPolyline",
		}),
		baseURL: "https://routes.googleapis.com",
	}, nil
}

func toGoogleWaypoint(c domain.Coordinates) googleWaypoint {
	var w googleWaypoint
	w.Location.LatLng = googleLatLng{Latitude: c.Lat, Longitude: c.Lng}
	return w
}

// Compute returns the encoded polyline through waypoints, first to last.
func (g *GoogleRoutesProvider) Compute(ctx context.Context, waypoints []domain.Coordinates) (_ string, err error) {
	defer obs.Time(ctx, "polyline.google.Compute")(&err)

	if len(waypoints) < 2 {
		return "", fmt.Errorf("google routes: need at least 2 waypoints, got %d", len(waypoints))
	}
	if len(waypoints)-2 > maxGoogleIntermediates {
		return "", fmt.Errorf("google routes: %d intermediates exceed limit of %d", len(waypoints)-2, maxGoogleIntermediates)
	}

	bodyObj := computeRoutesRequest{
		Origin:            toGoogleWaypoint(waypoints[0]),
		Destination:       toGoogleWaypoint(waypoints[len(waypoints)-1]),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
	}
	for _, c := range waypoints[1 : len(waypoints)-1] {
		bodyObj.Intermediates = append(bodyObj.Intermediates, toGoogleWaypoint(c))
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return "", fmt.Errorf("marshal compute routes request: %w", err)
	}

	endpoint := g.baseURL + "/directions/v2:computeRoutes"
	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		return g.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return "", fmt.Errorf("compute routes request failed: %w", err)
	}
	defer resp.Body.Close()

	var cr computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode compute routes response: %w", err)
	}

	if len(cr.Routes) == 0 || cr.Routes[0].Polyline.EncodedPolyline == "" {
		return "", errors.New("compute routes: response has no route polyline")
	}

	return cr.Routes[0].Polyline.EncodedPolyline, nil
}
