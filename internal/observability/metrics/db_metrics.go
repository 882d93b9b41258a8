package metrics

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *slog.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "regions",
			Help: "Regions in the reference table",
		},
		func() float64 {
			return queryFloat(db, logger, "SELECT COUNT(*)::float8 FROM regions")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "generation_latest_age_seconds",
			Help: "Age of the most recent generation interval",
		},
		func() float64 {
			latest := queryFloat(db, logger, "SELECT COALESCE(EXTRACT(EPOCH FROM MAX(ts)), 0)::float8 FROM electricity_generation")
			if latest <= 0 {
				return 0
			}
			return time.Since(time.Unix(int64(latest), 0)).Seconds()
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_open_connections",
			Help: "Open connections in the store pool",
		},
		func() float64 {
			return float64(db.Stats().OpenConnections)
		},
	))
}

func queryFloat(db *sql.DB, logger *slog.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var value float64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", "err", err)
		}
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}
