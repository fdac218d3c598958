package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderChangeCreated       = "created"
	OrderChangeUpdated       = "updated"
	OrderChangeStatusChanged = "status_changed"
	OrderChangeTotalChanged  = "total_changed"
	OrderChangeDeleted       = "deleted"
)

// OrderChangeRecord is an append-only audit entry for one platform order.
// Written by the webhook processor; the notification surface marks rows read.
// Also serves as the order's last-known state for webhook diffing, since
// order.updated payloads carry no before-image.
type OrderChangeRecord struct {
	ID         uint   `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"size:64;index:idx_order_change,priority:1;not null" json:"business_id"`
	OrderId    int64  `gorm:"index:idx_order_change,priority:2;not null" json:"order_id"`
	ChangeType string `gorm:"size:20;not null" json:"change_type"`

	OldStatus string          `gorm:"size:50" json:"old_status"`
	NewStatus string          `gorm:"size:50" json:"new_status"`
	OldTotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"old_total"`
	NewTotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"new_total"`

	Summary string `gorm:"size:500" json:"summary"`
	IsRead  bool   `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_order_change,priority:3" json:"created_at"`
}

// LatestOrderChange returns the most recent audit entry for an order, or
// (nil, nil) when the order has never been seen.
func LatestOrderChange(ctx context.Context, db *gorm.DB, businessId string, orderId int64) (*OrderChangeRecord, error) {
	var record OrderChangeRecord
	err := db.WithContext(ctx).
		Where("business_id = ? AND order_id = ?", businessId, orderId).
		Order("id desc").
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// HasOrderChangeOfType reports whether an audit entry of the given type exists
// for the order. Used as the redelivery guard for order.created webhooks.
func HasOrderChangeOfType(ctx context.Context, db *gorm.DB, businessId string, orderId int64, changeType string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&OrderChangeRecord{}).
		Where("business_id = ? AND order_id = ? AND change_type = ?", businessId, orderId, changeType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
