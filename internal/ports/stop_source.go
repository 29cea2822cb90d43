package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Port: read-only access to orders as routable stops.
type StopSource interface {
	// Resolve stops by order id. Missing ids are simply absent from the result.
	GetStops(ctx context.Context, orderIDs []int64) (map[int64]domain.Stop, error)
	// Return geocoded stops that are not yet routed and match the filter,
	// ordered by order id.
	ListEligible(ctx context.Context, filter domain.StopFilter) ([]domain.Stop, error)
}
