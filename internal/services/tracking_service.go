package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"time"
)

// TrackingService ingests vehicle positions and serves the latest one.
type TrackingService struct {
	Tracking  ports.TrackingRepository
	Routes    ports.RouteRepository
	Publisher ports.PositionPublisher // optional live fan-out
	Now       func() time.Time
}

// Record a position for an existing route, stamped with the server clock.
func (s *TrackingService) Report(ctx context.Context, routeID int64, lat, lng float64) (_ domain.PositionReport, err error) {
	defer obs.Time(ctx, "tracking.Report")(&err)

	if err := (domain.Coordinates{Lat: lat, Lng: lng}).Validate(); err != nil {
		return domain.PositionReport{}, fmt.Errorf("report position: %w", err)
	}

	ok, err := s.Routes.RouteExists(ctx, routeID)
	if err != nil {
		return domain.PositionReport{}, fmt.Errorf("report position: %w", err)
	}
	if !ok {
		return domain.PositionReport{}, fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	report := domain.PositionReport{RouteID: routeID, Lat: lat, Lng: lng, RecordedAt: now().UTC()}

	report.ID, err = s.Tracking.AppendPosition(ctx, report)
	if err != nil {
		return domain.PositionReport{}, fmt.Errorf("report position: %w", err)
	}

	if s.Publisher != nil {
		s.Publisher.Publish(ctx, report)
	}
	return report, nil
}

// Latest returns the newest report for the route; found is false when none exist.
func (s *TrackingService) Latest(ctx context.Context, routeID int64) (_ domain.PositionReport, _ bool, err error) {
	defer obs.Time(ctx, "tracking.Latest")(&err)
	return s.Tracking.LatestPosition(ctx, routeID)
}

// RouteExists reports whether routeID names a persisted route.
func (s *TrackingService) RouteExists(ctx context.Context, routeID int64) (bool, error) {
	return s.Routes.RouteExists(ctx, routeID)
}
