package models

import "time"

const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusDisconnected = "disconnected"
	ConnectionStatusError        = "error"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredRetry  = "retry"
	SyncTriggeredSystem = "system"
)

// StorefrontConnection holds one business's commerce-platform credentials.
type StorefrontConnection struct {
	ID                uint       `gorm:"primary_key" json:"id"`
	BusinessId        string     `gorm:"size:64;uniqueIndex;not null" json:"business_id"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	BaseURL           string     `gorm:"size:255" json:"base_url"`
	AuthSecretRef     string     `gorm:"type:text" json:"auth_secret_ref"`
	StoreName         string     `gorm:"size:255" json:"store_name"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SnapshotSyncRun is the audit row for one queued date-range resync.
// Each date in the range is synced independently; per-date failures land in
// SnapshotSyncError and the run finishes partial instead of failed.
type SnapshotSyncRun struct {
	ID           uint       `gorm:"primary_key" json:"id"`
	BusinessId   string     `gorm:"size:64;index;not null" json:"business_id"`
	ConnectionId uint       `gorm:"index;not null" json:"connection_id"`
	Status       string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy  string     `gorm:"size:20" json:"triggered_by"`
	RangeStart   time.Time  `gorm:"type:date;not null" json:"range_start"`
	RangeEnd     time.Time  `gorm:"type:date;not null" json:"range_end"`
	DatesTotal   int        `json:"dates_total"`
	DatesSynced  int        `json:"dates_synced"`
	OrdersSynced int        `json:"orders_synced"`
	ErrorCount   int        `json:"error_count"`
	ParentRunId  *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt    *time.Time `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	DurationMs   int64      `json:"duration_ms"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type SnapshotSyncError struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	SyncRunId  uint      `gorm:"index;not null" json:"sync_run_id"`
	BusinessId string    `gorm:"size:64;index;not null" json:"business_id"`
	SyncDate   time.Time `gorm:"type:date" json:"sync_date"`
	ErrorCode  string    `gorm:"size:64" json:"error_code"`
	Message    string    `gorm:"type:text" json:"message"`
	Retryable  bool      `gorm:"default:false" json:"retryable"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
