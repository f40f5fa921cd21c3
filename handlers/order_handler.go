package handlers

import (
	"errors"

	"github.com/chayanon29/learnpay/models"
	"github.com/chayanon29/learnpay/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	Orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

type CheckoutRequest struct {
	ItemType   string `json:"item_type" validate:"required,oneof=COURSE EBOOK"`
	ItemID     string `json:"item_id" validate:"required,uuid4"`
	CouponCode string `json:"coupon_code"`
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID format"})
	}

	order, settlement, err := h.Orders.Checkout(c.Context(), services.CheckoutInput{
		UserID:     userID,
		ItemType:   req.ItemType,
		ItemID:     itemID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		var couponErr *services.InvalidCouponError
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		case errors.As(err, &couponErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": couponErr.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	}

	status := "awaiting_payment"
	if order.Status == models.OrderCompleted {
		status = "completed"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":     status,
		"order":      order,
		"settlement": settlement,
	})
}
