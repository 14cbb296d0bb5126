// Package metrics provides Prometheus metrics collection for audit runs.
//
// An audit is a batch job, so metrics are not scraped: they are written as
// a node-exporter textfile or pushed to a Pushgateway when a run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "csiaudit"

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	registry          *prometheus.Registry
	layers            *prometheus.CounterVec
	features          prometheus.Counter
	geometries        *prometheus.CounterVec
	layerDuration     *prometheus.HistogramVec
	readyRatio        prometheus.Gauge
	lastRun           prometheus.Gauge
	storageOperations *prometheus.CounterVec
	storageDuration   *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		layers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layers_total",
				Help:      "Layers processed, by outcome status",
			},
			[]string{"status"},
		),

		features: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_scanned_total",
				Help:      "Features read across all audited layers",
			},
		),

		geometries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometries_total",
				Help:      "Geometries by validity class",
			},
			[]string{"class"},
		),

		layerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layer_scan_duration_seconds",
				Help:      "Time spent scanning one layer",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"driver"},
		),

		readyRatio: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unita_volumetrica_ready_ratio",
				Help:      "Share of volumetric units with usable elevations (0..1)",
			},
		),

		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last completed audit",
			},
		),

		storageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// IncLayers increments the layer counter for an outcome status.
func (c *Collector) IncLayers(status string) {
	c.layers.WithLabelValues(status).Inc()
}

// AddFeatures adds to the scanned feature counter.
func (c *Collector) AddFeatures(n int64) {
	if n > 0 {
		c.features.Add(float64(n))
	}
}

// AddGeometries adds to the geometry counter of a validity class.
func (c *Collector) AddGeometries(class string, n int64) {
	c.geometries.WithLabelValues(class).Add(float64(max(n, 0)))
}

// ObserveLayerDuration records how long a layer scan took.
func (c *Collector) ObserveLayerDuration(driver string, duration time.Duration) {
	c.layerDuration.WithLabelValues(driver).Observe(duration.Seconds())
}

// SetReadyRatio sets the 3D-ready share of the volumetric-unit layer.
func (c *Collector) SetReadyRatio(ratio float64) {
	c.readyRatio.Set(ratio)
}

// MarkRun records the completion time of a run.
func (c *Collector) MarkRun(t time.Time) {
	c.lastRun.Set(float64(t.Unix()))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.storageOperations.WithLabelValues(operation, status).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node-exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Push sends all metrics to a Pushgateway under the given job name.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
