package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Port: append-only store of vehicle position reports.
type TrackingRepository interface {
	AppendPosition(ctx context.Context, report domain.PositionReport) (int64, error)
	// Return the most recent report for the route; found is false when the
	// route has no reports.
	LatestPosition(ctx context.Context, routeID int64) (report domain.PositionReport, found bool, err error)
}

// PositionPublisher fans position reports out to live subscribers.
type PositionPublisher interface {
	Publish(ctx context.Context, report domain.PositionReport)
}

// PositionSubscriber registers live listeners for a route's reports.
type PositionSubscriber interface {
	Subscribe(routeID int64) (<-chan domain.PositionReport, func())
}
