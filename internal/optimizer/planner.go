package optimizer

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
)

// Planner assembles RoutePlans from stops.
//
// With a Depot the tour is anchored at it: depot+stops when ReturnToDepot is
// false, depot+stops+depot when it is true. Without a Depot the first stop
// is the fixed start. Anchors never appear in the returned Stops.
type Planner struct {
	Depot         *domain.Coordinates
	ReturnToDepot bool
	Budget        Budget
}

// Anchors returns the start and end anchors applied to every plan.
func (p Planner) Anchors() (start, end *domain.Coordinates) {
	if p.Depot == nil {
		return nil, nil
	}
	depot := *p.Depot
	if p.ReturnToDepot {
		return &depot, &depot
	}
	return &depot, nil
}

// Plan sequences stops with nearest-neighbor construction followed by 2-opt.
func (p Planner) Plan(ctx context.Context, stops []domain.Stop) (*domain.RoutePlan, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("plan route: no stops: %w", domain.ErrValidation)
	}

	start, end := p.Anchors()

	points := make([]domain.Coordinates, 0, len(stops)+2)
	if start != nil {
		points = append(points, *start)
	}
	for _, s := range stops {
		if s.Location == nil {
			return nil, fmt.Errorf("plan route: order %d has no coordinates: %w", s.OrderID, domain.ErrValidation)
		}
		points = append(points, *s.Location)
	}
	if end != nil {
		points = append(points, *end)
	}

	m, err := BuildMatrix(points)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	initial, err := NearestNeighbor(m, end != nil)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	improved, err := TwoOpt(ctx, m, initial, p.Budget)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	// Map matrix indexes back to stops, dropping the anchors.
	offset := 0
	if start != nil {
		offset = 1
	}
	ordered := make([]domain.Stop, 0, len(stops))
	for _, idx := range improved.Tour {
		si := idx - offset
		if si < 0 || si >= len(stops) {
			continue
		}
		ordered = append(ordered, stops[si])
	}

	return &domain.RoutePlan{
		Start:          start,
		End:            end,
		Stops:          ordered,
		DistanceMeters: m.TourLength(improved.Tour),
		Passes:         improved.Passes,
		Converged:      improved.Converged,
	}, nil
}
