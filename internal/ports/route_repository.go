package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Port: persistence boundary for routes and their stops.
//
// Every mutating method runs in a single transaction; a Route is never
// observable without its RouteStops.
type RouteRepository interface {
	// Persist a route and its stops atomically. Returns a *domain.ConflictError
	// when any order already belongs to a route.
	CreateRoute(ctx context.Context, r domain.NewRoute) (int64, error)
	// Return the subset of orderIDs that already belong to some route.
	RoutedOrderIDs(ctx context.Context, orderIDs []int64) ([]int64, error)
	// Return the route with its stops ordered by StopIndex, or domain.ErrNotFound.
	GetRoute(ctx context.Context, routeID int64) (*domain.Route, error)
	// Return every route with its ordered stops.
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
	// Report whether the route exists.
	RouteExists(ctx context.Context, routeID int64) (bool, error)
	// Flip a pending stop to completed.
	CompleteStop(ctx context.Context, routeID, orderID int64) error
	// Flip an unstarted route to started.
	StartRoute(ctx context.Context, routeID int64) error
	// Rewrite stop indexes of an unstarted route to follow orderIDs.
	ResequenceStops(ctx context.Context, routeID int64, orderIDs []int64) error
	// Delete the route, its stops and its position reports.
	DeleteRoute(ctx context.Context, routeID int64) error
}
