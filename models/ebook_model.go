package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ebook struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Author      *string   `gorm:"size:255" json:"author"`
	Price       float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	ShippingFee float64   `gorm:"type:numeric(10,2);default:0.00" json:"shipping_fee"`
	FileURL     *string   `gorm:"size:255" json:"file_url"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Ebook) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
