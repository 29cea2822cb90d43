package dto

import "time"

type ReportRequest struct {
	RouteID int64    `json:"route_id"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type PositionResponse struct {
	ID         int64     `json:"id"`
	RouteID    int64     `json:"route_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}
