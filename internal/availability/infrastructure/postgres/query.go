package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	availability "lcatricity/internal/availability/domain"
	generation "lcatricity/internal/generation/domain"
)

// Query runs the availability reports against Postgres.
type Query struct {
	db *sql.DB
}

// NewQuery constructs a Query.
func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

// RegionCoverage outer-joins regions to generation rows so regions without data still appear.
func (q *Query) RegionCoverage(ctx context.Context, window *generation.Window, limit int) ([]availability.RegionCoverage, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("availability query: nil db")
	}
	var start, end sql.NullTime
	if window != nil {
		start = sql.NullTime{Time: window.Start.UTC(), Valid: true}
		end = sql.NullTime{Time: window.End.UTC(), Valid: true}
	}

	rows, err := q.db.QueryContext(ctx, `
SELECT
	r.id,
	r.code,
	MIN(g.ts),
	MAX(g.ts),
	COUNT(g.ts)
FROM regions r
LEFT JOIN electricity_generation g
	ON g.region_id = r.id
	AND ($1::timestamptz IS NULL OR g.ts >= $1)
	AND ($2::timestamptz IS NULL OR g.ts <= $2)
GROUP BY r.id, r.code
ORDER BY COUNT(g.ts) DESC, r.code ASC
LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]availability.RegionCoverage, 0)
	for rows.Next() {
		var row availability.RegionCoverage
		var earliest, latest sql.NullTime
		if err := rows.Scan(&row.RegionID, &row.RegionCode, &earliest, &latest, &row.CountDataPoints); err != nil {
			return nil, err
		}
		row.EarliestTimestamp = utcPtr(earliest)
		row.LatestTimestamp = utcPtr(latest)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DailyCounts groups generation rows by UTC calendar day and region.
func (q *Query) DailyCounts(ctx context.Context, regionID *int64) ([]availability.DayCount, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("availability query: nil db")
	}
	var filter sql.NullInt64
	if regionID != nil {
		filter = sql.NullInt64{Int64: *regionID, Valid: true}
	}

	rows, err := q.db.QueryContext(ctx, `
SELECT
	to_char(g.ts AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
	r.id,
	r.code,
	COUNT(*)
FROM electricity_generation g
JOIN regions r ON r.id = g.region_id
WHERE ($1::bigint IS NULL OR g.region_id = $1)
GROUP BY day, r.id, r.code
ORDER BY day ASC, r.code ASC`, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]availability.DayCount, 0)
	for rows.Next() {
		var row availability.DayCount
		if err := rows.Scan(&row.Datestamp, &row.RegionID, &row.RegionCode, &row.CountDataPoints); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func utcPtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
