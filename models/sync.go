package models

import "time"

// SyncStats are the counters returned by every sync run.
type SyncStats struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
	Enriched  int `json:"enriched,omitempty"`
}

// SyncMode tells whether a run used the remote calendar or sample data.
type SyncMode string

const (
	SyncModeAPI    SyncMode = "api"
	SyncModeSample SyncMode = "sample"
)

type SyncResult struct {
	Mode      SyncMode      `json:"mode"`
	Stats     SyncStats     `json:"stats"`
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// IPOFilter narrows listing queries. Zero values mean "no filter".
type IPOFilter struct {
	Status   IPOStatus `json:"status,omitempty"`
	Exchange Exchange  `json:"exchange,omitempty"`
	Search   string    `json:"search,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// EntityCounts are aggregate row counts reported by the status endpoint.
type EntityCounts struct {
	Companies        int `json:"companies"`
	IPOs             int `json:"ipos"`
	FinancialMetrics int `json:"financial_metrics"`
	MarketData       int `json:"market_data"`
	News             int `json:"news"`
}

// SchedulerState is the periodic sync loop as seen by the status endpoint.
type SchedulerState struct {
	Running bool       `json:"running"`
	LastRun *time.Time `json:"last_run"`
}

// SystemStatus reports integration configuration and stored row counts.
type SystemStatus struct {
	Integrations map[string]bool `json:"integrations"`
	Counts       EntityCounts    `json:"counts"`
	CacheBackend string          `json:"cache_backend,omitempty"`
	LastSync     *SyncResult     `json:"last_sync"`
	Scheduler    *SchedulerState `json:"scheduler,omitempty"`
	CheckedAt    time.Time       `json:"checked_at"`
}
