package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	Lookups       map[string]int64 `json:"lookups"`
	Ratings       map[string]int64 `json:"ratings"`
	RateCacheHits int64            `json:"rateCacheHits"`
	RateCacheMiss int64            `json:"rateCacheMisses"`
	CacheHitRate  float64          `json:"cacheHitRate"`
	FallbackRates int64            `json:"fallbackRates"`
	Period        string           `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
