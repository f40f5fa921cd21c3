package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/chayanon29/learnpay/models"
	"github.com/chayanon29/learnpay/notifications"
	"github.com/chayanon29/learnpay/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettlementResult struct {
	AlreadySettled    bool `json:"already_settled"`
	EnrollmentCreated bool `json:"enrollment_created"`
	CouponApplied     bool `json:"coupon_applied"`
}

// ReceiptGenerator renders and stores a receipt for a settled payment.
// Implemented by receipts.Service; always best-effort.
type ReceiptGenerator interface {
	Generate(payment models.Payment, order models.Order, user models.User)
}

// EventSink receives payment lifecycle events for live admin feeds.
type EventSink interface {
	PaymentEvent(paymentID uuid.UUID, orderID uuid.UUID, status string)
}

// SettlementService owns the atomic unlock sequence that runs when a
// payment is approved. It is the only writer of Enrollment and CouponUsage
// rows.
type SettlementService struct {
	DB         *gorm.DB
	Dispatcher notifications.Dispatcher
	Receipts   ReceiptGenerator
	Events     EventSink
}

func NewSettlementService(db *gorm.DB, dispatcher notifications.Dispatcher, receipts ReceiptGenerator, events EventSink) *SettlementService {
	return &SettlementService{DB: db, Dispatcher: dispatcher, Receipts: receipts, Events: events}
}

// Settle marks the payment and its order COMPLETED and applies the derived
// side effects (enrollment, coupon usage) in one transaction. Calling it
// again on an already-settled payment is a safe no-op that repairs any
// missing side effects instead of double-applying them.
func (s *SettlementService) Settle(ctx context.Context, paymentID uuid.UUID) (*SettlementResult, error) {
	var result SettlementResult
	var payment models.Payment
	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if err := tx.First(&order, "id = ?", payment.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		switch payment.Status {
		case models.PaymentCompleted:
			// Re-entry after a partial settlement: leave the payment alone
			// and fall through to repair the downstream steps.
			result.AlreadySettled = true
		case models.PaymentApproved:
			now := time.Now()
			updates := map[string]interface{}{
				"status":  models.PaymentCompleted,
				"paid_at": now,
			}
			if payment.VerifiedAt == nil {
				updates["verified_at"] = now
			}
			if payment.ReceiptNo == nil {
				receiptNo, err := utils.GenerateUniqueReceiptNumber(tx)
				if err != nil {
					return err
				}
				updates["receipt_no"] = receiptNo
			}
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, models.PaymentApproved).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrStaleState
			}
			payment.Status = models.PaymentCompleted
			payment.PaidAt = &now
		default:
			return &InvalidTransitionError{Status: payment.Status, Action: "settle"}
		}

		if err := s.applyOrderSideEffects(tx, &order, &result); err != nil {
			if result.AlreadySettled {
				log.Printf("🔥 CRITICAL: settlement repair for payment %s failed: %v", payment.ID, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterSettle(payment, order)
	return &result, nil
}

// SettleFreeOrder completes a zero-total order directly, with no Payment
// row involved. Used by the checkout fast path.
func (s *SettlementService) SettleFreeOrder(ctx context.Context, orderID uuid.UUID) (*SettlementResult, error) {
	var result SettlementResult
	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Total != 0 {
			return &InvalidTransitionError{Status: order.Status, Action: "settle a non-free order without payment"}
		}
		result.AlreadySettled = order.Status == models.OrderCompleted
		return s.applyOrderSideEffects(tx, &order, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// applyOrderSideEffects runs steps 2-4 of the settlement sequence. Each
// step is guarded by a lookup so a retried call never double-applies.
func (s *SettlementService) applyOrderSideEffects(tx *gorm.DB, order *models.Order, result *SettlementResult) error {
	if order.Status != models.OrderCompleted {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderCompleted).Error; err != nil {
			return err
		}
		order.Status = models.OrderCompleted
	}

	if order.ItemType == models.ItemTypeCourse {
		var existing models.Enrollment
		err := tx.Where("user_id = ? AND course_id = ?", order.UserID, order.ItemID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			enrollment := models.Enrollment{
				UserID:     order.UserID,
				CourseID:   order.ItemID,
				Status:     "ACTIVE",
				EnrolledAt: time.Now(),
			}
			if err := tx.Create(&enrollment).Error; err != nil {
				return &SettlementPartialFailureError{Step: "enrollment", Err: err}
			}
			result.EnrollmentCreated = true
		} else if err != nil {
			return &SettlementPartialFailureError{Step: "enrollment", Err: err}
		}
	}

	if order.CouponID != nil {
		var usage models.CouponUsage
		err := tx.Where("coupon_id = ? AND user_id = ? AND order_id = ?",
			*order.CouponID, order.UserID, order.ID).First(&usage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			usage = models.CouponUsage{
				CouponID: *order.CouponID,
				UserID:   order.UserID,
				OrderID:  order.ID,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return &SettlementPartialFailureError{Step: "coupon_usage", Err: err}
			}
			if err := tx.Model(&models.Coupon{}).Where("id = ?", *order.CouponID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
				return &SettlementPartialFailureError{Step: "coupon_usage", Err: err}
			}
			result.CouponApplied = true
		} else if err != nil {
			return &SettlementPartialFailureError{Step: "coupon_usage", Err: err}
		}
	}
	return nil
}

// afterSettle runs outside the transaction. Nothing here may undo the
// settlement; failures are logged and swallowed.
func (s *SettlementService) afterSettle(payment models.Payment, order models.Order) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", order.UserID).Error; err != nil {
		log.Printf("🔥 Failed to load user %s for post-settlement hooks: %v", order.UserID, err)
		return
	}

	if s.Dispatcher != nil {
		go s.Dispatcher.NotifySuccess(payment, order, user)
	}
	if s.Receipts != nil {
		go s.Receipts.Generate(payment, order, user)
	}
	if s.Events != nil {
		s.Events.PaymentEvent(payment.ID, order.ID, models.PaymentCompleted)
	}
}
