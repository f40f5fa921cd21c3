package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentPendingVerification = "PENDING_VERIFICATION"
	PaymentApproved            = "APPROVED"
	PaymentCompleted           = "COMPLETED"
	PaymentRejected            = "REJECTED"
	PaymentCancelled           = "CANCELLED"
)

// TerminalPaymentStatuses lists the statuses a payment can never leave.
func TerminalPaymentStatuses() []string {
	return []string{PaymentCompleted, PaymentRejected, PaymentCancelled}
}

type Payment struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID uuid.UUID `gorm:"not null;index" json:"order_id"`
	Method  string    `gorm:"size:50;not null;default:'bank_transfer'" json:"method"`
	Status  string    `gorm:"size:30;not null;default:'PENDING_VERIFICATION'" json:"status"`
	Amount  float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	SlipURL *string   `gorm:"size:255" json:"slip_url"`

	DetectedAmount  *float64       `gorm:"type:numeric(10,2)" json:"detected_amount"`
	DetectedDate    *time.Time     `json:"detected_date"`
	SenderAccount   *string        `gorm:"size:50" json:"sender_account"`
	SenderName      *string        `gorm:"size:255" json:"sender_name"`
	SenderBank      *string        `gorm:"size:50" json:"sender_bank"`
	ReceiverAccount *string        `gorm:"size:50" json:"receiver_account"`
	ReceiverName    *string        `gorm:"size:255" json:"receiver_name"`
	ReceiverBank    *string        `gorm:"size:50" json:"receiver_bank"`
	TransferRef     *string        `gorm:"size:100" json:"transfer_ref"`
	ConfidenceScore *int           `json:"confidence_score"`
	SlipReading     datatypes.JSON `gorm:"type:jsonb" json:"slip_reading,omitempty"`
	Confidence      datatypes.JSON `gorm:"type:jsonb" json:"confidence,omitempty"`

	AdminNotes *string    `gorm:"type:text" json:"admin_notes"`
	ReviewedBy *uuid.UUID `json:"reviewed_by"`
	ReceiptNo  *string    `gorm:"size:30;unique" json:"receipt_no"`
	ReceiptURL *string    `gorm:"size:255" json:"receipt_url"`
	VerifiedAt *time.Time `json:"verified_at"`
	PaidAt     *time.Time `json:"paid_at"`

	Order Order `gorm:"foreignkey:OrderID" json:"order,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Payment) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
