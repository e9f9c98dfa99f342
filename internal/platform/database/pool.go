// Package database opens the Postgres pool shared by the key-value store
// backend and the audit event store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"certifier/internal/platform/config"
	"certifier/migrations"
)

const pingTimeout = 5 * time.Second

type Pool struct {
	db *sql.DB
}

type options struct {
	registerer prometheus.Registerer
}

type Option func(*options)

// WithRegisterer exports connection pool gauges on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Open connects, pings and applies the embedded schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if o.registerer != nil {
		if err := o.registerer.Register(newStatsCollector(db)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}
	return &Pool{db: db}, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errors.New("database not configured")
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// statsCollector reads sql.DBStats at scrape time.
type statsCollector struct {
	db *sql.DB

	open    *prometheus.Desc
	inUse   *prometheus.Desc
	idle    *prometheus.Desc
	waits   *prometheus.Desc
	waitDur *prometheus.Desc
}

func newStatsCollector(db *sql.DB) *statsCollector {
	return &statsCollector{
		db:      db,
		open:    prometheus.NewDesc("certifier_db_open_connections", "Open database connections.", nil, nil),
		inUse:   prometheus.NewDesc("certifier_db_in_use_connections", "Connections currently in use.", nil, nil),
		idle:    prometheus.NewDesc("certifier_db_idle_connections", "Idle connections.", nil, nil),
		waits:   prometheus.NewDesc("certifier_db_wait_count_total", "Connections waited for.", nil, nil),
		waitDur: prometheus.NewDesc("certifier_db_wait_seconds_total", "Time spent waiting for a connection.", nil, nil),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waits
	ch <- c.waitDur
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.db.Stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDur, prometheus.CounterValue, s.WaitDuration.Seconds())
}
