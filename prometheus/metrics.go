package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Tenant context metrics
	TenantContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Ledger metrics
	TransactionOperationsCounter prometheus.CounterVec
	DraftDecisionsCounter        prometheus.CounterVec
	InventoryBlocksCounter       prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	TransactionOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_transactions_total",
			Help: "Total number of ledger transactions created, by type and status",
		},
		[]string{"type", "status"},
	)

	DraftDecisionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_draft_decisions_total",
			Help: "Total number of draft approvals and rejections",
		},
		[]string{"decision"},
	)

	InventoryBlocksCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_inventory_blocks_total",
			Help: "Total number of transactions blocked by inventory policy",
		},
		[]string{"reason"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordTransaction counts a created ledger transaction
func RecordTransaction(txnType, status string) {
	TransactionOperationsCounter.WithLabelValues(txnType, status).Inc()
}

// RecordDraftDecision counts an approve/reject decision
func RecordDraftDecision(decision string) {
	DraftDecisionsCounter.WithLabelValues(decision).Inc()
}

// RecordInventoryBlock counts a policy block (insufficient stock, expired lot, ...)
func RecordInventoryBlock(reason string) {
	InventoryBlocksCounter.WithLabelValues(reason).Inc()
}
