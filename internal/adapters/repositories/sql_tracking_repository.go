package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
)

// SQL-backed append-only store of vehicle positions.
type SQLTrackingRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLTrackingRepository(db *sql.DB, dialect Dialect) *SQLTrackingRepository {
	return &SQLTrackingRepository{DB: db, Dialect: dialect}
}

func (s *SQLTrackingRepository) AppendPosition(ctx context.Context, report domain.PositionReport) (_ int64, err error) {
	defer obs.Time(ctx, "tracking.repo.AppendPosition")(&err)

	if s.DB == nil {
		return 0, errors.New("tracking repository: DB is nil")
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	INSERT INTO position_reports (route_id, lat, lng, recorded_at)
	VALUES (?, ?, ?, ?)
	RETURNING id;
	`), report.RouteID, report.Lat, report.Lng, report.RecordedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append position: insert position_reports: %w", err)
	}

	return id, nil
}

// Return the newest report for the route; ties on recorded_at go to the
// later insert.
func (s *SQLTrackingRepository) LatestPosition(ctx context.Context, routeID int64) (_ domain.PositionReport, _ bool, err error) {
	defer obs.Time(ctx, "tracking.repo.LatestPosition")(&err)

	if s.DB == nil {
		return domain.PositionReport{}, false, errors.New("tracking repository: DB is nil")
	}

	var r domain.PositionReport
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT id, route_id, lat, lng, recorded_at
	FROM position_reports
	WHERE route_id = ?
	ORDER BY recorded_at DESC, id DESC
	LIMIT 1;
	`), routeID).Scan(&r.ID, &r.RouteID, &r.Lat, &r.Lng, &r.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PositionReport{}, false, nil
	}
	if err != nil {
		return domain.PositionReport{}, false, fmt.Errorf("latest position: query position_reports: %w", err)
	}

	return r, true, nil
}
