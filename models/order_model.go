package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ItemTypeCourse = "COURSE"
	ItemTypeEbook  = "EBOOK"
)

const (
	OrderPending   = "PENDING"
	OrderCompleted = "COMPLETED"
	OrderCancelled = "CANCELLED"
)

type Order struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID  `gorm:"not null;index" json:"user_id"`
	ItemType       string     `gorm:"size:20;not null" json:"item_type"`
	ItemID         uuid.UUID  `gorm:"not null" json:"item_id"`
	Subtotal       float64    `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	ShippingFee    float64    `gorm:"type:numeric(10,2);default:0.00" json:"shipping_fee"`
	CouponDiscount float64    `gorm:"type:numeric(10,2);default:0.00" json:"coupon_discount"`
	Total          float64    `gorm:"type:numeric(10,2);not null" json:"total"`
	CouponID       *uuid.UUID `json:"coupon_id"`
	Status         string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`

	User   User    `gorm:"foreignkey:UserID" json:"user,omitempty"`
	Coupon *Coupon `gorm:"foreignkey:CouponID" json:"coupon,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Order) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
