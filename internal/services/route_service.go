package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/optimizer"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
	"time"
)

// DefaultServiceType is the order service type eligible for routing when a
// request does not name one.
const DefaultServiceType = "PickupDelivery"

// Minimum number of stops for a route.
const minRouteStops = 2

// RouteService owns the route lifecycle: creation, completion,
// re-sequencing, deletion and reads.
//
// Routes are always committed before the polyline is requested. A
// PolylineProvider failure is reported on the returned RouteDetail and never
// undoes the write.
type RouteService struct {
	Routes    ports.RouteRepository
	Orders    ports.StopSource
	Polylines ports.PolylineProvider // nil disables polylines
	Planner   optimizer.Planner

	DefaultServiceType string
	Now                func() time.Time
}

type CreateManualRequest struct {
	DriverName string
	CreatedBy  string
	OrderIDs   []int64
	// Optimize sequences the stops instead of keeping the supplied order.
	Optimize bool
}

type CreateOptimizedRequest struct {
	DriverName  string
	CreatedBy   string
	Date        string
	ServiceType string
}

// Preview is an unpersisted plan for the eligible stops.
type Preview struct {
	Plan        *domain.RoutePlan
	Polyline    string
	PolylineErr error
}

func (s *RouteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RouteService) serviceType(st string) string {
	if st = strings.TrimSpace(st); st != "" {
		return st
	}
	if s.DefaultServiceType != "" {
		return s.DefaultServiceType
	}
	return DefaultServiceType
}

// Create a route from an explicit order list.
func (s *RouteService) CreateManual(ctx context.Context, req CreateManualRequest) (_ *domain.RouteDetail, err error) {
	defer obs.Time(ctx, "routes.CreateManual")(&err)

	if len(req.OrderIDs) < minRouteStops {
		return nil, fmt.Errorf("create route: need at least %d orders, got %d: %w", minRouteStops, len(req.OrderIDs), domain.ErrValidation)
	}
	seen := make(map[int64]struct{}, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if id <= 0 {
			return nil, fmt.Errorf("create route: invalid order id %d: %w", id, domain.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("create route: duplicate order id %d: %w", id, domain.ErrValidation)
		}
		seen[id] = struct{}{}
	}

	routed, err := s.Routes.RoutedOrderIDs(ctx, req.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	if len(routed) > 0 {
		return nil, &domain.ConflictError{OrderIDs: routed}
	}

	stops, err := s.resolveStops(ctx, req.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}

	orderIDs := req.OrderIDs
	if req.Optimize {
		plan, err := s.Planner.Plan(ctx, stops)
		if err != nil {
			return nil, fmt.Errorf("create route: %w", err)
		}
		orderIDs = plan.OrderIDs()
	}

	return s.persist(ctx, req.DriverName, req.CreatedBy, orderIDs)
}

// Create a route from every eligible stop matching the filter, in optimized order.
func (s *RouteService) CreateOptimized(ctx context.Context, req CreateOptimizedRequest) (_ *domain.RouteDetail, err error) {
	defer obs.Time(ctx, "routes.CreateOptimized")(&err)

	plan, err := s.planEligible(ctx, req.Date, req.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("auto-generate route: %w", err)
	}

	log.Printf(
		"req_id=%s op=routes.CreateOptimized stops=%d meters=%.0f passes=%d converged=%t",
		obs.RequestID(ctx), len(plan.Stops), plan.DistanceMeters, plan.Passes, plan.Converged,
	)

	return s.persist(ctx, req.DriverName, req.CreatedBy, plan.OrderIDs())
}

// Plan the eligible stops without persisting anything.
func (s *RouteService) Preview(ctx context.Context, date, serviceType string) (_ *Preview, err error) {
	defer obs.Time(ctx, "routes.Preview")(&err)

	plan, err := s.planEligible(ctx, date, serviceType)
	if err != nil {
		return nil, fmt.Errorf("preview route: %w", err)
	}

	out := &Preview{Plan: plan}
	out.Polyline, out.PolylineErr = s.polyline(ctx, plan.Stops)
	return out, nil
}

func (s *RouteService) planEligible(ctx context.Context, date, serviceType string) (*domain.RoutePlan, error) {
	stops, err := s.ListEligible(ctx, date, serviceType)
	if err != nil {
		return nil, err
	}
	if len(stops) < minRouteStops {
		return nil, fmt.Errorf("need at least %d eligible orders, found %d: %w", minRouteStops, len(stops), domain.ErrValidation)
	}
	return s.Planner.Plan(ctx, stops)
}

// Return unrouted, geocoded stops for date (any date when empty) and service type.
func (s *RouteService) ListEligible(ctx context.Context, date, serviceType string) ([]domain.Stop, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("date %q must be %s: %w", date, domain.DateLayout, domain.ErrValidation)
		}
	}

	stops, err := s.Orders.ListEligible(ctx, domain.StopFilter{Date: date, ServiceType: s.serviceType(serviceType)})
	if err != nil {
		return nil, fmt.Errorf("list eligible orders: %w", err)
	}
	return stops, nil
}

// Resolve ids to stops in request order; any unknown id is ErrNotFound.
func (s *RouteService) resolveStops(ctx context.Context, orderIDs []int64) ([]domain.Stop, error) {
	found, err := s.Orders.GetStops(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	var missing []string
	stops := make([]domain.Stop, 0, len(orderIDs))
	for _, id := range orderIDs {
		st, ok := found[id]
		if !ok {
			missing = append(missing, fmt.Sprint(id))
			continue
		}
		stops = append(stops, st)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("orders %s: %w", strings.Join(missing, ","), domain.ErrNotFound)
	}
	return stops, nil
}

func (s *RouteService) persist(ctx context.Context, driverName, createdBy string, orderIDs []int64) (*domain.RouteDetail, error) {
	id, err := s.Routes.CreateRoute(ctx, domain.NewRoute{
		CreatedAt:  s.now().UTC(),
		CreatedBy:  strings.TrimSpace(createdBy),
		DriverName: strings.TrimSpace(driverName),
		OrderIDs:   orderIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}

	return s.GetRouteDetail(ctx, id)
}

// Return the route with its ordered stops and polyline.
func (s *RouteService) GetRouteDetail(ctx context.Context, routeID int64) (_ *domain.RouteDetail, err error) {
	defer obs.Time(ctx, "routes.GetRouteDetail")(&err)

	route, err := s.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stops := make([]domain.Stop, 0, len(route.Stops))
	for _, rs := range route.Stops {
		stops = append(stops, rs.Stop)
	}

	detail := &domain.RouteDetail{Route: *route}
	detail.Polyline, detail.PolylineErr = s.polyline(ctx, stops)
	return detail, nil
}

// polyline asks the mapping provider for the anchored path through stops.
// Failures are logged and returned wrapped in ErrUpstream.
func (s *RouteService) polyline(ctx context.Context, stops []domain.Stop) (string, error) {
	if s.Polylines == nil {
		return "", nil
	}

	start, end := s.Planner.Anchors()
	plan := domain.RoutePlan{Start: start, End: end, Stops: stops}
	waypoints := plan.Waypoints()
	if len(waypoints) < 2 {
		return "", nil
	}

	pl, err := s.Polylines.Compute(ctx, waypoints)
	if err != nil {
		err = fmt.Errorf("compute polyline: %w: %w", domain.ErrUpstream, err)
		log.Printf("req_id=%s op=routes.polyline waypoints=%d err=%v", obs.RequestID(ctx), len(waypoints), err)
		return "", err
	}
	return pl, nil
}

func (s *RouteService) ListRoutes(ctx context.Context) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "routes.ListRoutes")(&err)
	return s.Routes.ListRoutes(ctx)
}

func (s *RouteService) MarkStopCompleted(ctx context.Context, routeID, orderID int64) (err error) {
	defer obs.Time(ctx, "routes.MarkStopCompleted")(&err)
	return s.Routes.CompleteStop(ctx, routeID, orderID)
}

func (s *RouteService) StartRoute(ctx context.Context, routeID int64) (err error) {
	defer obs.Time(ctx, "routes.StartRoute")(&err)
	return s.Routes.StartRoute(ctx, routeID)
}

func (s *RouteService) DeleteRoute(ctx context.Context, routeID int64) (err error) {
	defer obs.Time(ctx, "routes.DeleteRoute")(&err)
	return s.Routes.DeleteRoute(ctx, routeID)
}

// Re-sequence an unstarted route's stops with the optimizer.
func (s *RouteService) OptimizeRoute(ctx context.Context, routeID int64) (_ *domain.RouteDetail, err error) {
	defer obs.Time(ctx, "routes.OptimizeRoute")(&err)

	route, err := s.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.IsStarted {
		return nil, fmt.Errorf("route %d: %w", routeID, domain.ErrRouteStarted)
	}

	stops := make([]domain.Stop, 0, len(route.Stops))
	for _, rs := range route.Stops {
		stops = append(stops, rs.Stop)
	}

	plan, err := s.Planner.Plan(ctx, stops)
	if err != nil {
		return nil, fmt.Errorf("optimize route %d: %w", routeID, err)
	}

	if err := s.Routes.ResequenceStops(ctx, routeID, plan.OrderIDs()); err != nil {
		if errors.Is(err, domain.ErrRouteStarted) {
			return nil, err
		}
		return nil, fmt.Errorf("optimize route %d: %w", routeID, err)
	}

	return s.GetRouteDetail(ctx, routeID)
}
