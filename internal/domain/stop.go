package domain

// Stop is the read-only view of an order as seen by the optimizer.
// Location is nil for orders that were never geocoded; such stops
// can be routed manually but never take part in optimization.
type Stop struct {
	OrderID    int64
	CustomerID string
	Location   *Coordinates
	Address    string
	Phone      string
	PriceTotal float64
}

// StopFilter selects eligible stops by delivery date and service type.
// An empty Date matches every date.
type StopFilter struct {
	Date        string
	ServiceType string
}

// DateLayout is the format used for delivery dates.
const DateLayout = "2006-01-02"
