package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name unless overridden
const DefaultNamespace = "roster"

// Registry holds all metrics for the application
type Registry struct {
	// Sort Metrics
	SortPassesTotal       *prometheus.CounterVec
	SortPassDuration      prometheus.Histogram
	SortTaskDuration      prometheus.Histogram
	SortWorkers           prometheus.Gauge
	SortLoadBalance       prometheus.Gauge
	MergeDuration         prometheus.Histogram
	PoolTaskFailuresTotal prometheus.Counter

	// Index Metrics
	IndexUpdatesTotal      *prometheus.CounterVec
	IndexStaleUpdatesTotal prometheus.Counter
	IndexQueriesTotal      *prometheus.CounterVec
	IndexBuildDuration     prometheus.Histogram
	IndexKeys              prometheus.Gauge
	IndexEntries           prometheus.Gauge

	// Store Metrics
	StoreRecordsTotal  prometheus.Gauge
	StoreGradeUpdates  *prometheus.CounterVec
	StoreRejectedTotal prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	namespace string
	started   time.Time
	registry  *prometheus.Registry
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	return NewRegistryWithNamespace(DefaultNamespace)
}

// NewRegistryWithNamespace creates a registry whose metric names are
// prefixed with namespace
func NewRegistryWithNamespace(namespace string) *Registry {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	r := &Registry{
		namespace: namespace,
		started:   time.Now(),
		registry:  prometheus.NewRegistry(),
	}

	// Initialize all metrics
	r.initSortMetrics()
	r.initIndexMetrics()
	r.initStoreMetrics()
	r.initSystemMetrics()

	return r
}

// Namespace returns the metric name prefix
func (r *Registry) Namespace() string {
	return r.namespace
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
