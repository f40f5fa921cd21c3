package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponUsage records one application of a coupon to one order. The unique
// index over (coupon_id, user_id, order_id) is what keeps retried
// settlements from double-counting.
type CouponUsage struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CouponID uuid.UUID `gorm:"not null;index:idx_coupon_usage_once,unique" json:"coupon_id"`
	UserID   uuid.UUID `gorm:"not null;index:idx_coupon_usage_once,unique" json:"user_id"`
	OrderID  uuid.UUID `gorm:"not null;index:idx_coupon_usage_once,unique" json:"order_id"`

	Coupon Coupon `gorm:"foreignkey:CouponID" json:"coupon,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *CouponUsage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
