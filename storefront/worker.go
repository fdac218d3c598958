package storefront

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"gorm.io/gorm"
)

// processSyncRun executes one queued date-range resync. Every date in the
// range is synced independently; a failed date is recorded as a run error and
// the remaining dates still sync. The run finishes success, partial, or failed
// depending on how many dates made it through.
func processSyncRun(ctx context.Context, payload SyncRunPayload) error {
	if payload.RunId == 0 || payload.BusinessId == "" {
		return errors.New("invalid payload")
	}

	ctx = utils.SetBusinessIdInContext(ctx, payload.BusinessId)
	db := config.GetDB().WithContext(ctx)

	var run models.SnapshotSyncRun
	if err := db.Where("id = ? AND business_id = ?", payload.RunId, payload.BusinessId).Take(&run).Error; err != nil {
		return err
	}

	// Redelivered message for a finished run: nothing to do.
	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed || run.Status == models.SyncRunStatusPartial {
		return nil
	}

	var conn models.StorefrontConnection
	if err := db.Where("id = ? AND business_id = ?", run.ConnectionId, payload.BusinessId).Take(&conn).Error; err != nil {
		return err
	}

	client, err := NewClientFromConnection(&conn)
	if err != nil {
		return finishRunFailed(ctx, db, &run, err)
	}

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": startedAt,
	}).Error; err != nil {
		return err
	}

	datesSynced := 0
	ordersSynced := 0
	errorCount := 0

	utils.EachDay(run.RangeStart, run.RangeEnd, func(day time.Time) {
		result, err := finance.SyncDay(ctx, config.GetDB(), client, payload.BusinessId, day)
		if err != nil {
			errorCount++
			_ = createSyncError(ctx, db, run.ID, payload.BusinessId, day, err)
			return
		}
		datesSynced++
		ordersSynced += result.OrdersCount
	})

	finishedAt := time.Now()
	status := models.SyncRunStatusSuccess
	if errorCount > 0 && datesSynced == 0 {
		status = models.SyncRunStatusFailed
	} else if errorCount > 0 {
		status = models.SyncRunStatusPartial
	}

	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":        status,
		"finished_at":   finishedAt,
		"duration_ms":   finishedAt.Sub(*startedAt).Milliseconds(),
		"dates_synced":  datesSynced,
		"orders_synced": ordersSynced,
		"error_count":   errorCount,
	}).Error; err != nil {
		return err
	}

	connUpdates := map[string]interface{}{
		"last_sync_at": finishedAt,
	}
	if status == models.SyncRunStatusSuccess {
		connUpdates["last_success_sync_at"] = finishedAt
	}
	if err := db.Model(&models.StorefrontConnection{}).
		Where("id = ? AND business_id = ?", conn.ID, payload.BusinessId).
		Updates(connUpdates).Error; err != nil {
		return err
	}

	return nil
}

func finishRunFailed(ctx context.Context, db *gorm.DB, run *models.SnapshotSyncRun, cause error) error {
	config.LogError(config.GetLogger(), "storefront", "processSyncRun", "run aborted",
		map[string]any{"run_id": run.ID, "business_id": run.BusinessId}, cause)
	_ = createSyncError(ctx, db, run.ID, run.BusinessId, run.RangeStart, cause)
	now := time.Now()
	return db.Model(run).Updates(map[string]interface{}{
		"status":      models.SyncRunStatusFailed,
		"finished_at": now,
		"error_count": 1,
	}).Error
}

func createSyncError(ctx context.Context, db *gorm.DB, runId uint, businessId string, day time.Time, cause error) error {
	errRec := models.SnapshotSyncError{
		SyncRunId:  runId,
		BusinessId: businessId,
		SyncDate:   utils.DateOnly(day),
		ErrorCode:  classifySyncError(cause),
		Message:    cause.Error(),
		Retryable:  !finance.IsConfigurationError(cause) && !finance.IsValidationError(cause),
	}
	return db.WithContext(ctx).Create(&errRec).Error
}

func classifySyncError(err error) string {
	switch {
	case finance.IsConfigurationError(err):
		return "configuration_error"
	case finance.IsUpstreamError(err):
		return "upstream_error"
	case finance.IsValidationError(err):
		return "validation_error"
	default:
		return "sync_failed"
	}
}
