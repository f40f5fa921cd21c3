package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Coupon struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Code          string     `gorm:"size:30;not null;unique" json:"code"`
	DiscountType  string     `gorm:"size:20;not null;default:'FIXED'" json:"discount_type"`
	DiscountValue float64    `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MinOrderValue float64    `gorm:"type:numeric(10,2);default:0.00" json:"min_order_value"`
	UsageCount    int        `gorm:"default:0" json:"usage_count"`
	MaxUsage      *int       `json:"max_usage"`
	ExpiresAt     *time.Time `json:"expires_at"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Coupon) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
