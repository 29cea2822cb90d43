package testutil

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/db"
)

// HQ is the depot used by fixtures.
var HQ = domain.Coordinates{Lat: 46.517151, Lng: 24.5223398}

// Store bundles the SQL repositories over one in-memory SQLite database.
type Store struct {
	DB       *sql.DB
	Routes   *repositories.SQLRouteRepository
	Orders   *repositories.SQLOrderRepository
	Tracking *repositories.SQLTrackingRepository
}

// NewStore opens a fresh in-memory database with the schema applied and
// the given orders seeded (DefaultOrders when none are passed).
func NewStore(t *testing.T, orders ...repositories.OrderSeed) *Store {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	if err := repositories.InitSchema(ctx, conn, repositories.SQLite); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	if len(orders) == 0 {
		orders = DefaultOrders()
	}
	if err := repositories.UpsertOrders(ctx, conn, repositories.SQLite, orders); err != nil {
		t.Fatalf("seed orders: %v", err)
	}

	return &Store{
		DB:       conn,
		Routes:   repositories.NewSQLRouteRepository(conn, repositories.SQLite),
		Orders:   repositories.NewSQLOrderRepository(conn, repositories.SQLite),
		Tracking: repositories.NewSQLTrackingRepository(conn, repositories.SQLite),
	}
}

func Float(v float64) *float64 { return &v }

// DefaultOrders returns a 1km square of geocoded orders (1..4) near HQ for
// 2024-05-01, plus orders that are never eligible on that date: 5 has no
// coordinates, 6 is another service type, 7 is due the next day.
func DefaultOrders() []repositories.OrderSeed {
	order := func(id int64, lat, lng *float64, price float64, serviceType, date string) repositories.OrderSeed {
		return repositories.OrderSeed{
			ID:           id,
			CustomerID:   "cust-" + strconv.FormatInt(id, 10),
			Phone:        "+40 700 000 00" + strconv.FormatInt(id, 10),
			Address:      "Str. Test " + strconv.FormatInt(id, 10),
			Lat:          lat,
			Lng:          lng,
			PriceTotal:   price,
			ServiceType:  serviceType,
			DeliveryDate: date,
		}
	}
	return []repositories.OrderSeed{
		order(1, Float(46.52), Float(24.53), 10, "PickupDelivery", "2024-05-01"),
		order(2, Float(46.53), Float(24.53), 20, "PickupDelivery", "2024-05-01"),
		order(3, Float(46.53), Float(24.54), 30, "PickupDelivery", "2024-05-01"),
		order(4, Float(46.52), Float(24.54), 40, "PickupDelivery", "2024-05-01"),
		order(5, nil, nil, 50, "PickupDelivery", "2024-05-01"),
		order(6, Float(46.60), Float(24.60), 60, "Laundry", "2024-05-01"),
		order(7, Float(46.54), Float(24.55), 70, "PickupDelivery", "2024-05-02"),
	}
}
