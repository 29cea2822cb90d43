package domain

import "time"

// PositionReport is a single vehicle position for a route. Reports are
// append-only; the latest one by RecordedAt wins.
type PositionReport struct {
	ID         int64
	RouteID    int64
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}
