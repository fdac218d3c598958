package finance

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"gorm.io/gorm"
)

const (
	TopicOrderCreated = "order.created"
	TopicOrderUpdated = "order.updated"
	TopicOrderDeleted = "order.deleted"
)

// recomputeTimeout bounds the platform round-trip a webhook-triggered full-day
// recompute is allowed to take. On expiry the event is acknowledged and the
// failure logged for manual resync.
const recomputeTimeout = 45 * time.Second

// ProcessOrderEvent applies one webhook event to the day's snapshot.
//
// Only a brand-new, countable order is safe to fold in incrementally; anything
// that could be a transition (updates, deletes, redeliveries) is resolved by
// rebuilding the whole day from the platform's current state. The extra API
// call buys correctness.
func ProcessOrderEvent(ctx context.Context, db *gorm.DB, source OrderSource, businessId, topic string, event Order) error {
	settings, err := models.GetBusinessSettings(ctx, businessId)
	if err != nil {
		return err
	}
	if settings == nil {
		return NewConfigurationError("business %s has no settings row; platform not configured", businessId)
	}

	switch topic {
	case TopicOrderCreated:
		return processOrderCreated(ctx, db, source, businessId, settings, event)
	case TopicOrderUpdated:
		prior, err := models.LatestOrderChange(ctx, db, businessId, event.ID)
		if err != nil {
			return err
		}
		changeType, summary := DiffOrderChange(prior, event)
		appendOrderChange(ctx, db, businessId, prior, event, changeType, summary)
		return recomputeEventDay(ctx, db, source, businessId, event)
	case TopicOrderDeleted:
		prior, err := models.LatestOrderChange(ctx, db, businessId, event.ID)
		if err != nil {
			return err
		}
		summary := fmt.Sprintf("Order #%d deleted", event.ID)
		appendOrderChange(ctx, db, businessId, prior, event, models.OrderChangeDeleted, summary)
		return recomputeEventDay(ctx, db, source, businessId, event)
	default:
		return NewValidationError("unknown webhook topic %q", topic)
	}
}

func processOrderCreated(ctx context.Context, db *gorm.DB, source OrderSource, businessId string, settings *models.BusinessSettings, event Order) error {
	seen, err := models.HasOrderChangeOfType(ctx, db, businessId, event.ID, models.OrderChangeCreated)
	if err != nil {
		return err
	}
	if seen {
		// Redelivery: the additive path would double-count, so rebuild the
		// day instead and skip the duplicate audit entry.
		return recomputeEventDay(ctx, db, source, businessId, event)
	}

	counted := statusIn(event.Status, settings.ValidOrderStatuses())
	summary := fmt.Sprintf("Order #%d created with status %q", event.ID, event.Status)
	if !counted {
		// No financial effect, but the audit entry still records the status
		// so a later order.updated can diff against it.
		appendOrderChange(ctx, db, businessId, nil, event, models.OrderChangeCreated, summary)
		return nil
	}
	if event.CreatedAt.IsZero() {
		return NewValidationError("order.created payload for order %d has no order date", event.ID)
	}

	if config.GetRedisLock() == nil {
		// The additive read-modify-write below is only safe when writers for
		// the day are serialized. Without a locker two concurrent events for
		// the same day could both read the same base snapshot and the last
		// upsert would drop the other's delta, so rebuild the day from the
		// platform's current state instead.
		appendOrderChange(ctx, db, businessId, nil, event, models.OrderChangeCreated, summary)
		return recomputeEventDay(ctx, db, source, businessId, event)
	}

	date := utils.DateOnly(event.CreatedAt)
	lock, err := acquireDayLock(ctx, businessId, date)
	if err != nil {
		return err
	}
	if lock != nil {
		defer lock.Release(context.WithoutCancel(ctx))
	}

	existing, err := FindSnapshotForDay(ctx, db, businessId, date)
	if err != nil {
		return err
	}
	snapshot := models.DailyFinancialSnapshot{
		BusinessId:   businessId,
		SnapshotDate: date,
	}
	if existing != nil {
		snapshot = *existing
	}

	snapshot.Revenue = snapshot.Revenue.Add(event.Total)
	snapshot.OrdersCount++
	snapshot.ItemsCount += event.ItemsCount()
	if !settings.ManualShippingPerItem {
		snapshot.ShippingCost = snapshot.ShippingCost.Add(OrderShippingContribution(event, settings))
	}
	snapshot.MaterialsCost = snapshot.Revenue.Mul(settings.NormalizedMaterialsRate())
	snapshot.CreditCardFees = snapshot.Revenue.Mul(settings.CreditCardRate)
	snapshot.Vat = snapshot.Revenue.Mul(settings.VatRate)
	snapshot.ApplyDerived()

	if err := UpsertSnapshot(ctx, db, &snapshot); err != nil {
		return err
	}

	appendOrderChange(ctx, db, businessId, nil, event, models.OrderChangeCreated, summary)
	return nil
}

// recomputeEventDay runs a bounded full-day resync for the event's order date.
// Upstream failures are logged and swallowed so the webhook is acknowledged
// rather than redelivered forever; the day is repaired by the next resync.
func recomputeEventDay(ctx context.Context, db *gorm.DB, source OrderSource, businessId string, event Order) error {
	if event.CreatedAt.IsZero() {
		config.LogError(config.GetLogger(), "finance", "recomputeEventDay", "missing order date",
			map[string]any{"business_id": businessId, "order_id": event.ID},
			fmt.Errorf("webhook payload has no order date; skipping recompute"))
		return nil
	}

	recomputeCtx, cancel := context.WithTimeout(ctx, recomputeTimeout)
	defer cancel()

	if _, err := SyncDay(recomputeCtx, db, source, businessId, event.CreatedAt); err != nil {
		if IsConfigurationError(err) {
			return err
		}
		config.LogError(config.GetLogger(), "finance", "recomputeEventDay", "full-day recompute failed",
			map[string]any{"business_id": businessId, "order_id": event.ID, "date": utils.FormatDate(event.CreatedAt)}, err)
		return nil
	}
	return nil
}

// DiffOrderChange compares a webhook payload against the order's last audit
// entry. The payload alone carries no before-image, so the previous record is
// the only source for the old status and total.
func DiffOrderChange(prior *models.OrderChangeRecord, event Order) (string, string) {
	if prior == nil {
		return models.OrderChangeUpdated, fmt.Sprintf("Order #%d updated (no prior state on record)", event.ID)
	}

	statusChanged := prior.NewStatus != event.Status
	totalChanged := !prior.NewTotal.Equal(event.Total)

	switch {
	case statusChanged && totalChanged:
		return models.OrderChangeUpdated, fmt.Sprintf(
			"Order #%d status %q -> %q, total %s -> %s",
			event.ID, prior.NewStatus, event.Status, prior.NewTotal.StringFixed(2), event.Total.StringFixed(2))
	case statusChanged:
		return models.OrderChangeStatusChanged, fmt.Sprintf(
			"Order #%d status %q -> %q", event.ID, prior.NewStatus, event.Status)
	case totalChanged:
		return models.OrderChangeTotalChanged, fmt.Sprintf(
			"Order #%d total %s -> %s", event.ID, prior.NewTotal.StringFixed(2), event.Total.StringFixed(2))
	default:
		return models.OrderChangeUpdated, fmt.Sprintf("Order #%d updated with no visible change", event.ID)
	}
}

// appendOrderChange writes the audit entry best-effort: a failed audit write
// never rolls back or blocks the financial update.
func appendOrderChange(ctx context.Context, db *gorm.DB, businessId string, prior *models.OrderChangeRecord, event Order, changeType, summary string) {
	record := models.OrderChangeRecord{
		BusinessId: businessId,
		OrderId:    event.ID,
		ChangeType: changeType,
		NewStatus:  event.Status,
		NewTotal:   event.Total,
		Summary:    summary,
	}
	if prior != nil {
		record.OldStatus = prior.NewStatus
		record.OldTotal = prior.NewTotal
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(config.GetLogger(), "finance", "appendOrderChange", "audit write failed",
			map[string]any{"business_id": businessId, "order_id": event.ID, "change_type": changeType}, err)
	}
}
