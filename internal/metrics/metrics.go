// Package metrics exposes dialer state to Prometheus. Everything is gathered
// at scrape time from live providers rather than counted inline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineProvider exposes the orchestrator's counters.
type EngineProvider interface {
	ActiveCalls() int
	RunningCampaigns() int
	Totals() (launched, abandoned, failedLaunches int)
}

// OperatorStats mirrors the operator manager's aggregate snapshot.
type OperatorStats struct {
	Total       int
	Available   int
	OnCall      int
	OnBreak     int
	Offline     int
	Utilization float64
}

// OperatorProvider exposes operator session aggregates.
type OperatorProvider interface {
	MetricsStats() OperatorStats
}

// ConnectionProvider exposes live WebSocket connection counts.
type ConnectionProvider interface {
	OperatorCount() int
	DashboardCount() int
}

// Collector is a prometheus.Collector over the dialer's runtime state. Any
// provider may be nil.
type Collector struct {
	engine      EngineProvider
	operators   OperatorProvider
	connections ConnectionProvider
	startTime   time.Time

	activeCallsDesc      *prometheus.Desc
	runningCampaignsDesc *prometheus.Desc
	callsLaunchedDesc    *prometheus.Desc
	callsAbandonedDesc   *prometheus.Desc
	failedLaunchesDesc   *prometheus.Desc
	operatorsDesc        *prometheus.Desc
	utilizationDesc      *prometheus.Desc
	connectionsDesc      *prometheus.Desc
	uptimeDesc           *prometheus.Desc
}

// NewCollector creates the scrape-time collector.
func NewCollector(
	engine EngineProvider,
	operators OperatorProvider,
	connections ConnectionProvider,
	startTime time.Time,
) *Collector {
	return &Collector{
		engine:      engine,
		operators:   operators,
		connections: connections,
		startTime:   startTime,

		activeCallsDesc: prometheus.NewDesc(
			"dialer_active_calls",
			"Number of in-flight outbound calls",
			nil, nil,
		),
		runningCampaignsDesc: prometheus.NewDesc(
			"dialer_running_campaigns",
			"Number of campaigns with an active pacing loop",
			nil, nil,
		),
		callsLaunchedDesc: prometheus.NewDesc(
			"dialer_calls_launched_total",
			"Total outbound calls launched since start",
			nil, nil,
		),
		callsAbandonedDesc: prometheus.NewDesc(
			"dialer_calls_abandoned_total",
			"Total answered calls dropped because no operator was free",
			nil, nil,
		),
		failedLaunchesDesc: prometheus.NewDesc(
			"dialer_failed_launches_total",
			"Total call launches rejected by the telephony provider",
			nil, nil,
		),
		operatorsDesc: prometheus.NewDesc(
			"dialer_operators",
			"Operator sessions by status",
			[]string{"status"}, nil,
		),
		utilizationDesc: prometheus.NewDesc(
			"dialer_operator_utilization",
			"Share of non-offline operators currently on a call",
			nil, nil,
		),
		connectionsDesc: prometheus.NewDesc(
			"dialer_websocket_connections",
			"Open WebSocket connections by channel",
			[]string{"channel"}, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"dialer_uptime_seconds",
			"Seconds since the process started",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeCallsDesc
	ch <- c.runningCampaignsDesc
	ch <- c.callsLaunchedDesc
	ch <- c.callsAbandonedDesc
	ch <- c.failedLaunchesDesc
	ch <- c.operatorsDesc
	ch <- c.utilizationDesc
	ch <- c.connectionsDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.engine != nil {
		ch <- prometheus.MustNewConstMetric(
			c.activeCallsDesc, prometheus.GaugeValue,
			float64(c.engine.ActiveCalls()),
		)
		ch <- prometheus.MustNewConstMetric(
			c.runningCampaignsDesc, prometheus.GaugeValue,
			float64(c.engine.RunningCampaigns()),
		)
		launched, abandoned, failed := c.engine.Totals()
		ch <- prometheus.MustNewConstMetric(
			c.callsLaunchedDesc, prometheus.CounterValue, float64(launched),
		)
		ch <- prometheus.MustNewConstMetric(
			c.callsAbandonedDesc, prometheus.CounterValue, float64(abandoned),
		)
		ch <- prometheus.MustNewConstMetric(
			c.failedLaunchesDesc, prometheus.CounterValue, float64(failed),
		)
	}

	if c.operators != nil {
		stats := c.operators.MetricsStats()
		for _, s := range []struct {
			label string
			value int
		}{
			{"available", stats.Available},
			{"on_call", stats.OnCall},
			{"on_break", stats.OnBreak},
			{"offline", stats.Offline},
		} {
			ch <- prometheus.MustNewConstMetric(
				c.operatorsDesc, prometheus.GaugeValue,
				float64(s.value), s.label,
			)
		}
		ch <- prometheus.MustNewConstMetric(
			c.utilizationDesc, prometheus.GaugeValue, stats.Utilization,
		)
	}

	if c.connections != nil {
		ch <- prometheus.MustNewConstMetric(
			c.connectionsDesc, prometheus.GaugeValue,
			float64(c.connections.OperatorCount()), "operator",
		)
		ch <- prometheus.MustNewConstMetric(
			c.connectionsDesc, prometheus.GaugeValue,
			float64(c.connections.DashboardCount()), "dashboard",
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds(),
	)
}
