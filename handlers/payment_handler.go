package handlers

import (
	"errors"
	"io"

	"github.com/chayanon29/learnpay/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// SubmitSlip accepts a multipart slip image for an order and runs the
// verification pipeline. The response always distinguishes auto-approved
// from pending-review; a provider outage is not a 500.
func (h *PaymentHandler) SubmitSlip(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID format"})
	}

	fileHeader, err := c.FormFile("slip")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing slip file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read slip file"})
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read slip file"})
	}

	result, err := h.Payments.SubmitSlip(c.Context(), orderID, fileHeader.Filename, image)
	if err != nil {
		var fileErr *services.InvalidFileError
		var transitionErr *services.InvalidTransitionError
		switch {
		case errors.As(err, &fileErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fileErr.Error()})
		case errors.Is(err, services.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		case errors.As(err, &transitionErr):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": transitionErr.Error()})
		case errors.Is(err, services.ErrStaleState):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment was updated by another request, please retry"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process slip"})
	}

	status := "pending_review"
	if result.AutoApproved {
		status = "auto_approved"
	}

	return c.JSON(fiber.Map{
		"status":        status,
		"payment":       result.Payment,
		"verification":  result.Reading,
		"confidence":    result.Confidence,
		"auto_approved": result.AutoApproved,
		"settlement":    result.Settlement,
	})
}
