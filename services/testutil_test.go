package services

import (
	"testing"
	"time"

	"github.com/chayanon29/learnpay/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Ebook{},
		&models.Coupon{},
		&models.Order{},
		&models.Payment{},
		&models.Enrollment{},
		&models.CouponUsage{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FullName: "Somsak Jaidee",
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, price float64) models.Course {
	t.Helper()
	course := models.Course{Title: "Intro to Go", Price: price, IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedCourseOrder(t *testing.T, db *gorm.DB, user models.User, course models.Course, total float64) models.Order {
	t.Helper()
	order := models.Order{
		UserID:   user.ID,
		ItemType: models.ItemTypeCourse,
		ItemID:   course.ID,
		Subtotal: total,
		Total:    total,
		Status:   models.OrderPending,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func seedPayment(t *testing.T, db *gorm.DB, order models.Order, status string) models.Payment {
	t.Helper()
	payment := models.Payment{
		OrderID: order.ID,
		Method:  "bank_transfer",
		Status:  status,
		Amount:  order.Total,
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func datePtr(t time.Time) *string {
	s := t.Format("2006-01-02")
	return &s
}
