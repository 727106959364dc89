package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the part of *pgxpool.Stat the collector reads.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
}

type gaugeDesc struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolStats) float64
}

// PoolCollector exports connection pool statistics.
type PoolCollector struct {
	stat    func() PoolStats
	service string
	metrics []gaugeDesc
}

func NewPoolCollector(stat func() PoolStats, service string) *PoolCollector {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil)
	}
	return &PoolCollector{
		stat:    stat,
		service: service,
		metrics: []gaugeDesc{
			{d("acquired_connections", "Connections currently in use"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.AcquiredConns()) }},
			{d("idle_connections", "Idle connections"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.IdleConns()) }},
			{d("total_connections", "Open connections"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.TotalConns()) }},
			{d("max_connections", "Pool size limit"), prometheus.GaugeValue,
				func(s PoolStats) float64 { return float64(s.MaxConns()) }},
			{d("acquire_count_total", "Successful acquires"), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.AcquireCount()) }},
			{d("empty_acquire_count_total", "Acquires that waited for a free connection"), prometheus.CounterValue,
				func(s PoolStats) float64 { return float64(s.EmptyAcquireCount()) }},
		},
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolCollector(func() PoolStats { return pool.Stat() }, service))
}
