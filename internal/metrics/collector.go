package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RunnerStats provides the collector access to job runner state.
type RunnerStats interface {
	InFlight() int64
	PendingNotifications() int
}

// PublisherState reports whether the MQTT publisher is connected.
type PublisherState interface {
	IsConnected() bool
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats RunnerStats
	mqtt  PublisherState

	jobsInFlight         *prometheus.Desc
	pendingNotifications *prometheus.Desc
	mqttConnected        *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// Either argument may be nil; the matching gauges then report 0.
func NewCollector(stats RunnerStats, mqtt PublisherState) *Collector {
	return &Collector{
		stats: stats,
		mqtt:  mqtt,
		jobsInFlight: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "jobs_in_flight"),
			"Jobs currently running through the pipeline.",
			nil, nil,
		),
		pendingNotifications: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "notifications_pending"),
			"Outcomes waiting to be delivered.",
			nil, nil,
		),
		mqttConnected: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "mqtt", "connected"),
			"1 if the MQTT publisher is connected.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobsInFlight
	ch <- c.pendingNotifications
	ch <- c.mqttConnected
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var inFlight, pending, connected float64
	if c.stats != nil {
		inFlight = float64(c.stats.InFlight())
		pending = float64(c.stats.PendingNotifications())
	}
	if c.mqtt != nil && c.mqtt.IsConnected() {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(c.jobsInFlight, prometheus.GaugeValue, inFlight)
	ch <- prometheus.MustNewConstMetric(c.pendingNotifications, prometheus.GaugeValue, pending)
	ch <- prometheus.MustNewConstMetric(c.mqttConnected, prometheus.GaugeValue, connected)
}
