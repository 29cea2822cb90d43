package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strings"
)

// SQL-backed implementation of the StopSource port over the orders table.
type SQLOrderRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLOrderRepository(db *sql.DB, dialect Dialect) *SQLOrderRepository {
	return &SQLOrderRepository{DB: db, Dialect: dialect}
}

// Resolve stops by order id. Unknown ids are absent from the result.
func (s *SQLOrderRepository) GetStops(ctx context.Context, orderIDs []int64) (_ map[int64]domain.Stop, err error) {
	defer obs.Time(ctx, "orders.repo.GetStops")(&err)

	if s.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	uniq := uniqueInt64(orderIDs)
	if len(uniq) == 0 {
		return map[int64]domain.Stop{}, nil
	}

	query := s.Dialect.Rebind(fmt.Sprintf(`
	SELECT id, customer_id, phone, address, lat, lng, price_total
	FROM orders
	WHERE id IN (%s);
	`, placeholders(len(uniq))))

	rows, err := s.DB.QueryContext(ctx, query, int64Args(uniq)...)
	if err != nil {
		return nil, fmt.Errorf("get stops: query orders table: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Stop, len(uniq))
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("get stops: %w", err)
		}
		out[stop.OrderID] = stop
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get stops: row iteration: %w", err)
	}

	return out, nil
}

// Return geocoded, unrouted orders matching the filter, ordered by id.
// Empty filter fields match everything.
func (s *SQLOrderRepository) ListEligible(ctx context.Context, filter domain.StopFilter) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "orders.repo.ListEligible")(&err)

	if s.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	var where []string
	var args []any
	if d := strings.TrimSpace(filter.Date); d != "" {
		where = append(where, "AND o.delivery_date = ?")
		args = append(args, d)
	}
	if st := strings.TrimSpace(filter.ServiceType); st != "" {
		where = append(where, "AND o.service_type = ?")
		args = append(args, st)
	}

	query := s.Dialect.Rebind(`
	SELECT o.id, o.customer_id, o.phone, o.address, o.lat, o.lng, o.price_total
	FROM orders o
	WHERE o.lat IS NOT NULL
		AND o.lng IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM route_stops rs WHERE rs.order_id = o.id)
	` + strings.Join(where, "\n\t") + `
	ORDER BY o.id;
	`)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list eligible: query orders table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 32)
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("list eligible: %w", err)
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list eligible: row iteration: %w", err)
	}

	return stops, nil
}

func scanStop(rows *sql.Rows) (domain.Stop, error) {
	var st domain.Stop
	var lat, lng sql.NullFloat64
	if err := rows.Scan(&st.OrderID, &st.CustomerID, &st.Phone, &st.Address, &lat, &lng, &st.PriceTotal); err != nil {
		return domain.Stop{}, fmt.Errorf("scan order row: %w", err)
	}
	st.Location = nullableLocation(lat, lng)
	return st, nil
}
