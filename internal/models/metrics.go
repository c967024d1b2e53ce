package models

import "time"

// SystemMetrics is a lightweight snapshot of runtime counters for the health endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	SyncSucceeded            uint64    `json:"sync_succeeded"`
	SyncFailed               uint64    `json:"sync_failed"`
	TokenRefreshFailures     uint64    `json:"token_refresh_failures"`
	SyncQueueDepth           int       `json:"sync_queue_depth"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
