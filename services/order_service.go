package services

import (
	"context"
	"errors"
	"time"

	"github.com/chayanon29/learnpay/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("item not found")

// InvalidCouponError rejects a coupon at checkout with a user-facing reason.
type InvalidCouponError struct {
	Reason string
}

func (e *InvalidCouponError) Error() string {
	return "coupon not applicable: " + e.Reason
}

type CheckoutInput struct {
	UserID     uuid.UUID
	ItemType   string
	ItemID     uuid.UUID
	CouponCode string
}

// OrderService prices and creates orders. Totals are fixed at creation;
// once a Payment exists nothing recomputes them.
type OrderService struct {
	DB         *gorm.DB
	Settlement *SettlementService
}

func NewOrderService(db *gorm.DB, settlement *SettlementService) *OrderService {
	return &OrderService{DB: db, Settlement: settlement}
}

// Checkout creates a PENDING order for the item. Zero-total orders (fully
// discounted items) are settled immediately with no Payment involved.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, *SettlementResult, error) {
	subtotal, shipping, err := s.priceItem(ctx, in.ItemType, in.ItemID)
	if err != nil {
		return nil, nil, err
	}

	order := models.Order{
		UserID:      in.UserID,
		ItemType:    in.ItemType,
		ItemID:      in.ItemID,
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Status:      models.OrderPending,
	}

	if in.CouponCode != "" {
		coupon, discount, err := s.applyCoupon(ctx, in.CouponCode, in.UserID, subtotal+shipping)
		if err != nil {
			return nil, nil, err
		}
		order.CouponID = &coupon.ID
		order.CouponDiscount = discount
	}

	order.Total = order.Subtotal + order.ShippingFee - order.CouponDiscount
	if order.Total < 0 {
		order.Total = 0
	}

	if err := s.DB.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, nil, err
	}

	if order.Total == 0 {
		settlement, err := s.Settlement.SettleFreeOrder(ctx, order.ID)
		if err != nil {
			return nil, nil, err
		}
		order.Status = models.OrderCompleted
		return &order, settlement, nil
	}
	return &order, nil, nil
}

func (s *OrderService) priceItem(ctx context.Context, itemType string, itemID uuid.UUID) (subtotal, shipping float64, err error) {
	switch itemType {
	case models.ItemTypeCourse:
		var course models.Course
		if err := s.DB.WithContext(ctx).First(&course, "id = ? AND is_active = ?", itemID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, ErrItemNotFound
			}
			return 0, 0, err
		}
		return course.Price, 0, nil
	case models.ItemTypeEbook:
		var ebook models.Ebook
		if err := s.DB.WithContext(ctx).First(&ebook, "id = ? AND is_active = ?", itemID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, ErrItemNotFound
			}
			return 0, 0, err
		}
		return ebook.Price, ebook.ShippingFee, nil
	}
	return 0, 0, ErrItemNotFound
}

func (s *OrderService) applyCoupon(ctx context.Context, code string, userID uuid.UUID, orderValue float64) (*models.Coupon, float64, error) {
	var coupon models.Coupon
	if err := s.DB.WithContext(ctx).First(&coupon, "code = ? AND is_active = ?", code, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, &InvalidCouponError{Reason: "unknown coupon code"}
		}
		return nil, 0, err
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return nil, 0, &InvalidCouponError{Reason: "coupon has expired"}
	}
	if coupon.MaxUsage != nil && coupon.UsageCount >= *coupon.MaxUsage {
		return nil, 0, &InvalidCouponError{Reason: "coupon usage limit reached"}
	}
	if orderValue < coupon.MinOrderValue {
		return nil, 0, &InvalidCouponError{Reason: "order value below coupon minimum"}
	}

	discount := coupon.DiscountValue
	if coupon.DiscountType == "PERCENT" {
		discount = orderValue * coupon.DiscountValue / 100
	}
	if discount > orderValue {
		discount = orderValue
	}
	return &coupon, discount, nil
}
