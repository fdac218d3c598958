package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"github.com/google/uuid"
)

type Business struct {
	ID       uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Timezone string    `gorm:"size:64" json:"timezone"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Business) BeforeCreate() error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).Take(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}
