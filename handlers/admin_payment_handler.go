package handlers

import (
	"errors"

	"github.com/chayanon29/learnpay/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminPaymentHandler struct {
	Payments *services.PaymentService
}

func NewAdminPaymentHandler(payments *services.PaymentService) *AdminPaymentHandler {
	return &AdminPaymentHandler{Payments: payments}
}

func (h *AdminPaymentHandler) ListPending(c *fiber.Ctx) error {
	payments, err := h.Payments.ListPendingReview(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(fiber.Map{"payments": payments, "count": len(payments)})
}

type DecisionRequest struct {
	Action string `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Notes  string `json:"notes"`
}

func (h *AdminPaymentHandler) ManualDecision(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format"})
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}

	payment, err := h.Payments.ManualDecision(c.Context(), paymentID, req.Action, req.Notes, adminID)
	if err != nil {
		return mapDecisionError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

type BulkDecisionRequest struct {
	PaymentIDs []string `json:"payment_ids" validate:"required,min=1,dive,uuid4"`
	Action     string   `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Notes      string   `json:"notes"`
}

func (h *AdminPaymentHandler) BulkDecision(c *fiber.Ctx) error {
	var req BulkDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(req.PaymentIDs))
	for _, raw := range req.PaymentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID format: " + raw})
		}
		ids = append(ids, id)
	}

	report := h.Payments.BulkDecision(c.Context(), ids, req.Action, req.Notes, adminID)
	return c.JSON(report)
}

func mapDecisionError(c *fiber.Ctx, err error) error {
	var transitionErr *services.InvalidTransitionError
	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	case errors.Is(err, services.ErrRejectReasonRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A rejection reason is required"})
	case errors.As(err, &transitionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": transitionErr.Error()})
	case errors.Is(err, services.ErrStaleState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment was updated by another request, please refresh"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply decision"})
}
