package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"time"
)

// SQL-backed implementation of the RouteRepository port.
//
// Order exclusivity is enforced twice: a pre-check inside the creating
// transaction produces the full conflict list, and the UNIQUE constraint on
// route_stops.order_id closes the race between concurrent writers.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLRouteRepository(db *sql.DB, dialect Dialect) *SQLRouteRepository {
	return &SQLRouteRepository{DB: db, Dialect: dialect}
}

func (s *SQLRouteRepository) q(query string) string { return s.Dialect.Rebind(query) }

// Persist a route and its stops in one transaction.
func (s *SQLRouteRepository) CreateRoute(ctx context.Context, r domain.NewRoute) (_ int64, err error) {
	defer obs.Time(ctx, "routes.repo.CreateRoute")(&err)

	if s.DB == nil {
		return 0, errors.New("route repository: DB is nil")
	}
	if len(r.OrderIDs) == 0 {
		return 0, fmt.Errorf("create route: no orders: %w", domain.ErrValidation)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	routed, err := routedOrderIDs(ctx, tx, s.Dialect, r.OrderIDs)
	if err != nil {
		return 0, fmt.Errorf("create route: %w", err)
	}
	if len(routed) > 0 {
		return 0, &domain.ConflictError{OrderIDs: routed}
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var routeID int64
	err = tx.QueryRowContext(ctx, s.q(`
	INSERT INTO routes (created_at, created_by, driver_name, is_started)
	VALUES (?, ?, ?, FALSE)
	RETURNING id;
	`), createdAt.UTC(), r.CreatedBy, r.DriverName).Scan(&routeID)
	if err != nil {
		return 0, fmt.Errorf("create route: insert route: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
	INSERT INTO route_stops (route_id, order_id, stop_index, is_completed)
	VALUES (?, ?, ?, FALSE);
	`))
	if err != nil {
		return 0, fmt.Errorf("create route: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for i, orderID := range r.OrderIDs {
		if _, err := stmt.ExecContext(ctx, routeID, orderID, i+1); err != nil {
			if isUniqueViolation(err) {
				return 0, &domain.ConflictError{OrderIDs: []int64{orderID}}
			}
			return 0, fmt.Errorf("create route: insert stop order=%d: %w", orderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, &domain.ConflictError{}
		}
		return 0, fmt.Errorf("create route: commit tx: %w", err)
	}

	return routeID, nil
}

// Return the subset of orderIDs already assigned to a route, ascending.
func (s *SQLRouteRepository) RoutedOrderIDs(ctx context.Context, orderIDs []int64) (_ []int64, err error) {
	defer obs.Time(ctx, "routes.repo.RoutedOrderIDs")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}
	return routedOrderIDs(ctx, s.DB, s.Dialect, orderIDs)
}

func routedOrderIDs(ctx context.Context, db queryer, dialect Dialect, orderIDs []int64) ([]int64, error) {
	uniq := uniqueInt64(orderIDs)
	if len(uniq) == 0 {
		return nil, nil
	}

	// Only the placeholder structure is interpolated; all values remain parameterized.
	query := dialect.Rebind(fmt.Sprintf(`
	SELECT order_id
	FROM route_stops
	WHERE order_id IN (%s)
	ORDER BY order_id;
	`, placeholders(len(uniq))))

	rows, err := db.QueryContext(ctx, query, int64Args(uniq)...)
	if err != nil {
		return nil, fmt.Errorf("routed orders: query route_stops: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("routed orders: scan row: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("routed orders: row iteration: %w", err)
	}

	return out, nil
}

// Return one route with its stops ordered by stop index.
func (s *SQLRouteRepository) GetRoute(ctx context.Context, routeID int64) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "routes.repo.GetRoute")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	route := &domain.Route{}
	err = s.DB.QueryRowContext(ctx, s.q(`
	SELECT id, created_at, created_by, driver_name, is_started
	FROM routes
	WHERE id = ?;
	`), routeID).Scan(&route.ID, &route.CreatedAt, &route.CreatedBy, &route.DriverName, &route.IsStarted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route: query routes table: %w", err)
	}

	stops, err := s.loadStops(ctx, `WHERE rs.route_id = ?`, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	route.Stops = stops

	return route, nil
}

// Return all routes with their ordered stops, oldest first.
func (s *SQLRouteRepository) ListRoutes(ctx context.Context) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, "routes.repo.ListRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT id, created_at, created_by, driver_name, is_started
	FROM routes
	ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}

	routes := make([]*domain.Route, 0, 16)
	byID := make(map[int64]*domain.Route)
	for rows.Next() {
		r := &domain.Route{}
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.CreatedBy, &r.DriverName, &r.IsStarted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}
	// Close before the next query: SQLite pools hold a single connection.
	rows.Close()

	if len(routes) == 0 {
		return routes, nil
	}

	stops, err := s.loadStops(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	for _, st := range stops {
		if r, ok := byID[st.RouteID]; ok {
			r.Stops = append(r.Stops, st)
		}
	}

	return routes, nil
}

func (s *SQLRouteRepository) loadStops(ctx context.Context, where string, args ...any) ([]domain.RouteStop, error) {
	query := s.q(`
	SELECT
		rs.route_id,
		rs.order_id,
		rs.stop_index,
		rs.is_completed,
		o.customer_id,
		o.phone,
		o.address,
		o.lat,
		o.lng,
		o.price_total
	FROM route_stops rs
	JOIN orders o ON o.id = rs.order_id
	` + where + `
	ORDER BY rs.route_id, rs.stop_index;
	`)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query route_stops: %w", err)
	}
	defer rows.Close()

	var stops []domain.RouteStop
	for rows.Next() {
		var rs domain.RouteStop
		var lat, lng sql.NullFloat64
		err := rows.Scan(
			&rs.RouteID,
			&rs.OrderID,
			&rs.StopIndex,
			&rs.IsCompleted,
			&rs.Stop.CustomerID,
			&rs.Stop.Phone,
			&rs.Stop.Address,
			&lat,
			&lng,
			&rs.Stop.PriceTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan route stop: %w", err)
		}
		rs.Stop.OrderID = rs.OrderID
		rs.Stop.Location = nullableLocation(lat, lng)
		stops = append(stops, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("route stop iteration: %w", err)
	}

	return stops, nil
}

func (s *SQLRouteRepository) RouteExists(ctx context.Context, routeID int64) (bool, error) {
	if s.DB == nil {
		return false, errors.New("route repository: DB is nil")
	}
	return routeExists(ctx, s.DB, s.Dialect, routeID)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func routeExists(ctx context.Context, db rowQueryer, dialect Dialect, routeID int64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, dialect.Rebind(`SELECT 1 FROM routes WHERE id = ?;`), routeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("route exists: query routes table: %w", err)
	}
	return true, nil
}

// Mark a pending stop completed. A stop can only be completed once.
func (s *SQLRouteRepository) CompleteStop(ctx context.Context, routeID, orderID int64) (err error) {
	defer obs.Time(ctx, "routes.repo.CompleteStop")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("complete stop: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.q(`
	UPDATE route_stops
	SET is_completed = TRUE
	WHERE route_id = ? AND order_id = ? AND is_completed = FALSE;
	`), routeID, orderID)
	if err != nil {
		return fmt.Errorf("complete stop: update route_stops: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete stop: rows affected: %w", err)
	}
	if n == 0 {
		var done bool
		err := tx.QueryRowContext(ctx, s.q(`
		SELECT is_completed FROM route_stops WHERE route_id = ? AND order_id = ?;
		`), routeID, orderID).Scan(&done)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("stop route=%d order=%d: %w", routeID, orderID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("complete stop: query route_stops: %w", err)
		}
		return fmt.Errorf("stop route=%d order=%d: %w", routeID, orderID, domain.ErrAlreadyCompleted)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("complete stop: commit tx: %w", err)
	}
	return nil
}

// Flip is_started; a route can only be started once.
func (s *SQLRouteRepository) StartRoute(ctx context.Context, routeID int64) (err error) {
	defer obs.Time(ctx, "routes.repo.StartRoute")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.q(`
	UPDATE routes SET is_started = TRUE WHERE id = ? AND is_started = FALSE;
	`), routeID)
	if err != nil {
		return fmt.Errorf("start route: update routes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("start route: rows affected: %w", err)
	}
	if n == 0 {
		ok, err := routeExists(ctx, tx, s.Dialect, routeID)
		if err != nil {
			return fmt.Errorf("start route: %w", err)
		}
		if !ok {
			return fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
		}
		return fmt.Errorf("route %d: %w", routeID, domain.ErrAlreadyStarted)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("start route: commit tx: %w", err)
	}
	return nil
}

// Rewrite stop indexes so they follow orderIDs. orderIDs must be exactly
// the route's current stop set.
func (s *SQLRouteRepository) ResequenceStops(ctx context.Context, routeID int64, orderIDs []int64) (err error) {
	defer obs.Time(ctx, "routes.repo.ResequenceStops")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("resequence stops: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var started bool
	err = tx.QueryRowContext(ctx, s.q(`SELECT is_started FROM routes WHERE id = ?;`), routeID).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("resequence stops: query routes table: %w", err)
	}
	if started {
		return fmt.Errorf("route %d: %w", routeID, domain.ErrRouteStarted)
	}

	rows, err := tx.QueryContext(ctx, s.q(`SELECT order_id FROM route_stops WHERE route_id = ?;`), routeID)
	if err != nil {
		return fmt.Errorf("resequence stops: query route_stops: %w", err)
	}
	current := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("resequence stops: scan row: %w", err)
		}
		current[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("resequence stops: row iteration: %w", err)
	}
	rows.Close()

	if len(uniqueInt64(orderIDs)) != len(orderIDs) || len(orderIDs) != len(current) {
		return fmt.Errorf("resequence stops: order set does not match route %d: %w", routeID, domain.ErrValidation)
	}
	for _, id := range orderIDs {
		if _, ok := current[id]; !ok {
			return fmt.Errorf("resequence stops: order %d is not on route %d: %w", id, routeID, domain.ErrValidation)
		}
	}

	// Shift every index past the final range first so the per-row
	// UNIQUE (route_id, stop_index) check never sees a collision.
	k := len(orderIDs)
	if _, err := tx.ExecContext(ctx, s.q(`
	UPDATE route_stops SET stop_index = stop_index + ? WHERE route_id = ?;
	`), k, routeID); err != nil {
		return fmt.Errorf("resequence stops: shift indexes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
	UPDATE route_stops SET stop_index = ? WHERE route_id = ? AND order_id = ?;
	`))
	if err != nil {
		return fmt.Errorf("resequence stops: prepare update: %w", err)
	}
	defer stmt.Close()

	for i, id := range orderIDs {
		if _, err := stmt.ExecContext(ctx, i+1, routeID, id); err != nil {
			return fmt.Errorf("resequence stops: update order=%d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("resequence stops: commit tx: %w", err)
	}
	return nil
}

// Delete a route together with its stops and position reports, releasing
// its orders for future routes.
func (s *SQLRouteRepository) DeleteRoute(ctx context.Context, routeID int64) (err error) {
	defer obs.Time(ctx, "routes.repo.DeleteRoute")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM position_reports WHERE route_id = ?;`,
		`DELETE FROM route_stops WHERE route_id = ?;`,
	} {
		if _, err := tx.ExecContext(ctx, s.q(stmt), routeID); err != nil {
			return fmt.Errorf("delete route: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM routes WHERE id = ?;`), routeID)
	if err != nil {
		return fmt.Errorf("delete route: delete from routes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete route: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete route: commit tx: %w", err)
	}
	return nil
}

func nullableLocation(lat, lng sql.NullFloat64) *domain.Coordinates {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
}
