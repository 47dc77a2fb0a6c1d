package models

// AggregationOutcome is the recorded result of one (source, platform)
// pair attempted during a run.
type AggregationOutcome struct {
	SourceID       string           `json:"sourceId"`
	SourceName     string           `json:"sourceName"`
	Platform       string           `json:"platform"`
	Success        bool             `json:"success"`
	ProcessedItems int              `json:"processedItems"`
	Items          []NormalizedItem `json:"items"`
	Error          string           `json:"error,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// RunReport aggregates every outcome of one run for one owner. Success
// reflects whether the run itself executed; per-pair failures live in
// Results and never escalate to the run level.
type RunReport struct {
	Success        bool                 `json:"success"`
	ProcessedCount int                  `json:"processedCount"`
	Results        []AggregationOutcome `json:"results"`
}

// UserSyncResult is the per-owner detail of a scheduled sweep
type UserSyncResult struct {
	OwnerID        string `json:"ownerId"`
	Success        bool   `json:"success"`
	ProcessedCount int    `json:"processedCount"`
	Error          string `json:"error,omitempty"`
}

// SyncSummary is the top-level result of a scheduled sweep over all
// owners with at least one configured source.
type SyncSummary struct {
	TotalUsers          int              `json:"totalUsers"`
	SuccessfulUsers     int              `json:"successfulUsers"`
	FailedUsers         int              `json:"failedUsers"`
	TotalItemsProcessed int              `json:"totalItemsProcessed"`
	DurationSeconds     float64          `json:"durationSeconds"`
	UserResults         []UserSyncResult `json:"userResults"`
}
