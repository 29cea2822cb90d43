package domain

import "time"

// Represents a single stop in a persisted delivery route.
// StopIndex is 1-based and contiguous within the route; the Stop fields
// are denormalized from the order on read.
type RouteStop struct {
	RouteID     int64
	OrderID     int64
	StopIndex   int
	IsCompleted bool
	Stop        Stop
}

// Route is a persisted delivery route owning its ordered stops.
// IsStarted only ever moves from false to true.
type Route struct {
	ID         int64
	CreatedAt  time.Time
	CreatedBy  string
	DriverName string
	IsStarted  bool
	Stops      []RouteStop
}

// NewRoute is the input for persisting a route together with its stops.
// OrderIDs are stored with StopIndex 1..K in slice order.
type NewRoute struct {
	CreatedAt  time.Time
	CreatedBy  string
	DriverName string
	OrderIDs   []int64
}

// Represents the optimizer output for one route.
// A RoutePlan is immutable planning data: Stops holds the genuine stops in
// visiting order, while Start and End carry the optional depot anchors.
type RoutePlan struct {
	Start          *Coordinates
	End            *Coordinates
	Stops          []Stop
	DistanceMeters float64
	Passes         int
	Converged      bool
}

// Waypoints returns the anchored coordinate sequence of the plan.
// Stops without a location are skipped.
func (p *RoutePlan) Waypoints() []Coordinates {
	out := make([]Coordinates, 0, len(p.Stops)+2)
	if p.Start != nil {
		out = append(out, *p.Start)
	}
	for _, s := range p.Stops {
		if s.Location != nil {
			out = append(out, *s.Location)
		}
	}
	if p.End != nil {
		out = append(out, *p.End)
	}
	return out
}

// OrderIDs returns the stop order ids in visiting order.
func (p *RoutePlan) OrderIDs() []int64 {
	ids := make([]int64, 0, len(p.Stops))
	for _, s := range p.Stops {
		ids = append(ids, s.OrderID)
	}
	return ids
}

// TotalPrice sums the price of every stop in the plan.
func (p *RoutePlan) TotalPrice() float64 {
	total := 0.0
	for _, s := range p.Stops {
		total += s.PriceTotal
	}
	return total
}

// RouteDetail is a route read back together with its polyline.
// PolylineErr is set when the mapping collaborator failed; the route itself
// is still valid and persisted.
type RouteDetail struct {
	Route       Route
	Polyline    string
	PolylineErr error
}
