package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncLayers increments the layer counter for an outcome status.
	IncLayers(status string)

	// AddFeatures adds to the scanned feature counter.
	AddFeatures(n int64)

	// AddGeometries adds to the geometry counter for a class (valid, invalid, empty).
	AddGeometries(class string, n int64)

	// ObserveLayerDuration records how long a layer scan took.
	ObserveLayerDuration(driver string, duration time.Duration)

	// SetReadyRatio sets the 3D-ready share of the volumetric-unit layer.
	SetReadyRatio(ratio float64)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncLayers implements MetricsCollector.
func (n *NoOpMetrics) IncLayers(_ string) {}

// AddFeatures implements MetricsCollector.
func (n *NoOpMetrics) AddFeatures(_ int64) {}

// AddGeometries implements MetricsCollector.
func (n *NoOpMetrics) AddGeometries(_ string, _ int64) {}

// ObserveLayerDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveLayerDuration(_ string, _ time.Duration) {}

// SetReadyRatio implements MetricsCollector.
func (n *NoOpMetrics) SetReadyRatio(_ float64) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
