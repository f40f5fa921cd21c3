package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chayanon29/learnpay/models"
	"github.com/chayanon29/learnpay/notifications"
	"github.com/chayanon29/learnpay/storage"
	"github.com/chayanon29/learnpay/verification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

const maxSlipFileSize = 5 * 1024 * 1024

var ErrRejectReasonRequired = errors.New("a rejection reason is required")

// SubmitResult is everything the upload endpoint reports back: the payment
// row, what the provider read, how it scored, and whether it auto-settled.
type SubmitResult struct {
	Payment      models.Payment            `json:"payment"`
	Reading      *verification.SlipReading `json:"verification"`
	Confidence   ConfidenceResult          `json:"confidence"`
	AutoApproved bool                      `json:"auto_approved"`
	Settlement   *SettlementResult         `json:"settlement,omitempty"`
}

type BulkItemResult struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Success   bool      `json:"success"`
	Status    string    `json:"status,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type BulkReport struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkItemResult `json:"results"`
}

// PaymentService owns every transition of a Payment. Nothing else writes
// payments.status.
type PaymentService struct {
	DB         *gorm.DB
	Verifier   verification.Verifier
	Scorer     *Scorer
	Settlement *SettlementService
	Storage    storage.Uploader
	Dispatcher notifications.Dispatcher
	Events     EventSink
}

func NewPaymentService(db *gorm.DB, verifier verification.Verifier, scorer *Scorer,
	settlement *SettlementService, store storage.Uploader,
	dispatcher notifications.Dispatcher, events EventSink) *PaymentService {
	return &PaymentService{
		DB:         db,
		Verifier:   verifier,
		Scorer:     scorer,
		Settlement: settlement,
		Storage:    store,
		Dispatcher: dispatcher,
		Events:     events,
	}
}

// SubmitSlip runs the full verification pipeline for an uploaded transfer
// slip. A provider failure is not an error here: the payment stays
// PENDING_VERIFICATION for manual review and the result says so.
func (s *PaymentService) SubmitSlip(ctx context.Context, orderID uuid.UUID, filename string, image []byte) (*SubmitResult, error) {
	if err := validateSlipFile(image); err != nil {
		return nil, err
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, &InvalidTransitionError{Status: order.Status, Action: "submit a slip for an order in status"}
	}

	payment, err := s.findOrCreatePending(ctx, &order)
	if err != nil {
		return nil, err
	}

	if s.Storage != nil {
		slipURL, err := s.Storage.UploadSlip(ctx, payment.ID.String(), filename, image)
		if err != nil {
			log.Printf("🔥 Failed to store slip for payment %s, continuing without URL: %v", payment.ID, err)
		} else {
			payment.SlipURL = &slipURL
		}
	}

	reading, verr := s.Verifier.Verify(ctx, filename, image)
	if verr != nil {
		return s.recordVerificationFailure(ctx, payment, verr)
	}

	confidence := s.Scorer.Score(reading, ExpectedPayment{
		Amount:        order.Total,
		ReferenceDate: order.CreatedAt,
	})

	if err := s.recordReading(ctx, payment, reading, confidence); err != nil {
		return nil, err
	}

	result := &SubmitResult{Payment: *payment, Reading: reading, Confidence: confidence}
	if !confidence.AutoApproveEligible {
		if s.Events != nil {
			s.Events.PaymentEvent(payment.ID, order.ID, payment.Status)
		}
		return result, nil
	}

	now := time.Now()
	if err := s.transition(s.DB.WithContext(ctx), payment.ID, models.PaymentPendingVerification, map[string]interface{}{
		"status":      models.PaymentApproved,
		"verified_at": now,
	}); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentApproved
	payment.VerifiedAt = &now

	settlement, err := s.Settlement.Settle(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).First(payment, "id = ?", payment.ID).Error; err != nil {
		return nil, err
	}
	result.Payment = *payment
	result.AutoApproved = true
	result.Settlement = settlement
	return result, nil
}

// ManualDecision applies an admin approve/reject. Re-approving a payment
// that is already APPROVED or COMPLETED is a no-op returning the current
// row, so a double-clicked approve button does no harm.
func (s *PaymentService) ManualDecision(ctx context.Context, paymentID uuid.UUID, action, notes string, adminID uuid.UUID) (*models.Payment, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("unknown decision action: %s", action)
	}

	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	if action == ActionApprove &&
		(payment.Status == models.PaymentApproved || payment.Status == models.PaymentCompleted) {
		// A payment still APPROVED here is an earlier approval whose
		// settlement never finished. Re-approving runs settlement to
		// completion instead of returning the stranded row.
		if payment.Status == models.PaymentApproved {
			if _, err := s.Settlement.Settle(ctx, payment.ID); err != nil {
				return nil, err
			}
			if err := s.DB.WithContext(ctx).First(&payment, "id = ?", paymentID).Error; err != nil {
				return nil, err
			}
		}
		return &payment, nil
	}
	if payment.Status != models.PaymentPendingVerification {
		return nil, &InvalidTransitionError{Status: payment.Status, Action: action}
	}
	if action == ActionReject && notes == "" {
		return nil, ErrRejectReasonRequired
	}

	now := time.Now()
	updates := map[string]interface{}{
		"reviewed_by": adminID,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}

	switch action {
	case ActionApprove:
		updates["status"] = models.PaymentApproved
		updates["verified_at"] = now
		if err := s.transition(s.DB.WithContext(ctx), payment.ID, models.PaymentPendingVerification, updates); err != nil {
			return nil, err
		}
		if _, err := s.Settlement.Settle(ctx, payment.ID); err != nil {
			return nil, err
		}
	case ActionReject:
		updates["status"] = models.PaymentRejected
		if err := s.transition(s.DB.WithContext(ctx), payment.ID, models.PaymentPendingVerification, updates); err != nil {
			return nil, err
		}
		s.notifyRejection(ctx, payment, notes)
	}

	if err := s.DB.WithContext(ctx).First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	if s.Events != nil {
		s.Events.PaymentEvent(payment.ID, payment.OrderID, payment.Status)
	}
	return &payment, nil
}

// BulkDecision applies ManualDecision per item. One bad item never aborts
// the batch; its failure is reported alongside the rest.
func (s *PaymentService) BulkDecision(ctx context.Context, paymentIDs []uuid.UUID, action, notes string, adminID uuid.UUID) *BulkReport {
	report := &BulkReport{Results: make([]BulkItemResult, 0, len(paymentIDs))}

	for _, id := range paymentIDs {
		payment, err := s.ManualDecision(ctx, id, action, notes, adminID)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, BulkItemResult{
				PaymentID: id,
				Success:   false,
				Reason:    err.Error(),
			})
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, BulkItemResult{
			PaymentID: id,
			Success:   true,
			Status:    payment.Status,
		})
	}
	return report
}

// ListPendingReview returns the manual review queue, oldest first.
func (s *PaymentService) ListPendingReview(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.DB.WithContext(ctx).
		Preload("Order").Preload("Order.User").
		Where("status = ?", models.PaymentPendingVerification).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

// transition performs the compare-and-swap on payments.status that
// serializes concurrent callers. Zero rows affected means somebody else
// moved the payment first.
func (s *PaymentService) transition(tx *gorm.DB, paymentID uuid.UUID, from string, updates map[string]interface{}) error {
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// findOrCreatePending returns the single live payment for the order,
// creating one on first submission. A re-upload reuses the existing
// pending row so the order never has two live payments.
func (s *PaymentService) findOrCreatePending(ctx context.Context, order *models.Order) (*models.Payment, error) {
	var payment models.Payment
	err := s.DB.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", order.ID, models.TerminalPaymentStatuses()).
		First(&payment).Error
	if err == nil {
		if payment.Status != models.PaymentPendingVerification {
			return nil, &InvalidTransitionError{Status: payment.Status, Action: "re-submit a slip for"}
		}
		return &payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	payment = models.Payment{
		OrderID: order.ID,
		Method:  "bank_transfer",
		Status:  models.PaymentPendingVerification,
		Amount:  order.Total,
	}
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// recordReading overwrites the verification fields on the pending payment.
// The CAS guard keeps a concurrent decision from being clobbered.
func (s *PaymentService) recordReading(ctx context.Context, payment *models.Payment, reading *verification.SlipReading, confidence ConfidenceResult) error {
	readingJSON, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	confidenceJSON, err := json.Marshal(confidence)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"slip_url":         payment.SlipURL,
		"detected_amount":  reading.Amount,
		"sender_account":   reading.Sender.Account,
		"sender_name":      reading.Sender.Name,
		"sender_bank":      reading.Sender.Bank,
		"receiver_account": reading.Receiver.Account,
		"receiver_name":    reading.Receiver.Name,
		"receiver_bank":    reading.Receiver.Bank,
		"transfer_ref":     reading.Reference,
		"confidence_score": confidence.Score,
		"slip_reading":     readingJSON,
		"confidence":       confidenceJSON,
	}
	if transDate, ok := reading.ParsedDate(); ok {
		updates["detected_date"] = transDate
	}

	if err := s.transition(s.DB.WithContext(ctx), payment.ID, models.PaymentPendingVerification, updates); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).First(payment, "id = ?", payment.ID).Error
}

// recordVerificationFailure keeps the payment in PENDING_VERIFICATION with
// a zero-score audit record, so the slip lands in the manual review queue
// instead of failing the upload.
func (s *PaymentService) recordVerificationFailure(ctx context.Context, payment *models.Payment, verr error) (*SubmitResult, error) {
	confidence := s.Scorer.Failed(verr)
	confidenceJSON, err := json.Marshal(confidence)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"slip_url":   payment.SlipURL,
		"confidence": confidenceJSON,
	}
	if err := s.transition(s.DB.WithContext(ctx), payment.ID, models.PaymentPendingVerification, updates); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).First(payment, "id = ?", payment.ID).Error; err != nil {
		return nil, err
	}

	log.Printf("Slip verification for payment %s fell back to manual review: %v", payment.ID, verr)
	if s.Events != nil {
		s.Events.PaymentEvent(payment.ID, payment.OrderID, payment.Status)
	}
	return &SubmitResult{Payment: *payment, Confidence: confidence}, nil
}

func (s *PaymentService) notifyRejection(ctx context.Context, payment models.Payment, reason string) {
	if s.Dispatcher == nil {
		return
	}
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("User").First(&order, "id = ?", payment.OrderID).Error; err != nil {
		log.Printf("🔥 Failed to load order %s for rejection notice: %v", payment.OrderID, err)
		return
	}
	go s.Dispatcher.NotifyFailure(payment, order, order.User, reason)
}

// validateSlipFile runs the cheap checks that must fail before any network
// call: size cap and image content type sniffing.
func validateSlipFile(image []byte) error {
	if len(image) == 0 {
		return &InvalidFileError{Reason: "empty file"}
	}
	if len(image) > maxSlipFileSize {
		return &InvalidFileError{Reason: fmt.Sprintf("file exceeds %d bytes", maxSlipFileSize)}
	}
	switch http.DetectContentType(image) {
	case "image/jpeg", "image/png", "image/webp":
		return nil
	}
	return &InvalidFileError{Reason: "file must be a JPEG, PNG or WebP image"}
}
