package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"not null;index:idx_enrollment_user_course,unique" json:"user_id"`
	CourseID   uuid.UUID `gorm:"not null;index:idx_enrollment_user_course,unique" json:"course_id"`
	Status     string    `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`

	User   User   `gorm:"foreignkey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignkey:CourseID" json:"course,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
