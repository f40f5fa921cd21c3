package services

import (
	"context"
	"testing"

	"github.com/chayanon29/learnpay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle_ApprovedCoursePayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 1500)
	order := seedCourseOrder(t, db, user, course, 1500)
	payment := seedPayment(t, db, order, models.PaymentApproved)

	svc := NewSettlementService(db, nil, nil, nil)
	result, err := svc.Settle(context.Background(), payment.ID)
	require.NoError(t, err)

	assert.False(t, result.AlreadySettled)
	assert.True(t, result.EnrollmentCreated)
	assert.False(t, result.CouponApplied)

	var got models.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, models.PaymentCompleted, got.Status)
	assert.NotNil(t, got.PaidAt)
	assert.NotNil(t, got.VerifiedAt)
	assert.NotNil(t, got.ReceiptNo)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderCompleted, gotOrder.Status)

	var enrollments int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)
}

func TestSettle_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 900)

	coupon := models.Coupon{Code: "WELCOME100", DiscountType: "FIXED", DiscountValue: 100, IsActive: true}
	require.NoError(t, db.Create(&coupon).Error)

	order := models.Order{
		UserID:         user.ID,
		ItemType:       models.ItemTypeCourse,
		ItemID:         course.ID,
		Subtotal:       900,
		CouponDiscount: 100,
		Total:          800,
		CouponID:       &coupon.ID,
		Status:         models.OrderPending,
	}
	require.NoError(t, db.Create(&order).Error)
	payment := seedPayment(t, db, order, models.PaymentApproved)

	svc := NewSettlementService(db, nil, nil, nil)

	first, err := svc.Settle(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.True(t, first.EnrollmentCreated)
	assert.True(t, first.CouponApplied)

	second, err := svc.Settle(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadySettled)
	assert.False(t, second.EnrollmentCreated)
	assert.False(t, second.CouponApplied)

	var enrollments, usages int64
	db.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Count(&enrollments)
	db.Model(&models.CouponUsage{}).Where("order_id = ?", order.ID).Count(&usages)
	assert.EqualValues(t, 1, enrollments)
	assert.EqualValues(t, 1, usages)

	var gotCoupon models.Coupon
	require.NoError(t, db.First(&gotCoupon, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, gotCoupon.UsageCount)
}

func TestSettle_RepairsMissingEnrollmentOnRetry(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 500)
	order := seedCourseOrder(t, db, user, course, 500)

	// Simulate a prior partial settlement: payment and order committed,
	// enrollment never created.
	payment := seedPayment(t, db, order, models.PaymentCompleted)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderCompleted).Error)

	svc := NewSettlementService(db, nil, nil, nil)
	result, err := svc.Settle(context.Background(), payment.ID)
	require.NoError(t, err)

	assert.True(t, result.AlreadySettled)
	assert.True(t, result.EnrollmentCreated)

	var enrollments int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)
}

func TestSettle_RejectsWrongStartingState(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 500)
	order := seedCourseOrder(t, db, user, course, 500)
	payment := seedPayment(t, db, order, models.PaymentPendingVerification)

	svc := NewSettlementService(db, nil, nil, nil)
	_, err := svc.Settle(context.Background(), payment.ID)

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.PaymentPendingVerification, transitionErr.Status)

	var enrollments int64
	db.Model(&models.Enrollment{}).Count(&enrollments)
	assert.EqualValues(t, 0, enrollments)
}

func TestSettle_UnknownPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettlementService(db, nil, nil, nil)

	_, err := svc.Settle(context.Background(), seedUser(t, db).ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestSettleFreeOrder(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 0)
	order := seedCourseOrder(t, db, user, course, 0)

	svc := NewSettlementService(db, nil, nil, nil)
	result, err := svc.SettleFreeOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, result.EnrollmentCreated)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderCompleted, gotOrder.Status)

	var payments int64
	db.Model(&models.Payment{}).Count(&payments)
	assert.EqualValues(t, 0, payments, "free orders settle without a payment row")
}

func TestSettleFreeOrder_RefusesPaidOrders(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	course := seedCourse(t, db, 900)
	order := seedCourseOrder(t, db, user, course, 900)

	svc := NewSettlementService(db, nil, nil, nil)
	_, err := svc.SettleFreeOrder(context.Background(), order.ID)

	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}
