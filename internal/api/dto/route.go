package dto

import "time"

type CreateRouteRequest struct {
	DriverName string  `json:"driver_name"`
	CreatedBy  string  `json:"created_by"`
	OrderIDs   []int64 `json:"order_ids"`
	Optimize   bool    `json:"optimize"`
}

type AutoRouteRequest struct {
	DriverName  string `json:"driver_name"`
	CreatedBy   string `json:"created_by"`
	Date        string `json:"date"`
	ServiceType string `json:"service_type"`
}

type StopResponse struct {
	OrderID    int64    `json:"order_id"`
	CustomerID string   `json:"customer_id"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	PriceTotal float64  `json:"price_total"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

type RouteStopResponse struct {
	StopIndex   int  `json:"stop_index"`
	IsCompleted bool `json:"is_completed"`
	StopResponse
}

type RouteResponse struct {
	ID         int64               `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	CreatedBy  string              `json:"created_by"`
	DriverName string              `json:"driver_name"`
	IsStarted  bool                `json:"is_started"`
	TotalPrice float64             `json:"total_price"`
	Stops      []RouteStopResponse `json:"stops"`
}

// RouteDetailResponse carries the polyline; PolylineError is set instead
// when the mapping service failed after the route was stored.
type RouteDetailResponse struct {
	RouteResponse
	Polyline      string `json:"polyline,omitempty"`
	PolylineError string `json:"polyline_error,omitempty"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type ListEligibleResponse struct {
	Orders []StopResponse `json:"orders"`
}

type PreviewResponse struct {
	Orders         []StopResponse `json:"orders"`
	TotalPrice     float64        `json:"total_price"`
	DistanceMeters float64        `json:"distance_meters"`
	Converged      bool           `json:"converged"`
	Polyline       string         `json:"polyline,omitempty"`
	PolylineError  string         `json:"polyline_error,omitempty"`
}
