package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Contract for the external mapping service that turns an ordered list of
// waypoints into an encoded polyline. The polyline is passed through as-is.
type PolylineProvider interface {
	Compute(ctx context.Context, waypoints []domain.Coordinates) (string, error)
}

// PolylineCache stores computed polylines by waypoint key.
type PolylineCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, polyline string) error
}
