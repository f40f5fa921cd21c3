package jobs

import (
	"log"
	"time"

	config "github.com/chayanon29/learnpay/configs"
	"github.com/chayanon29/learnpay/models"
	"gorm.io/gorm"
)

// ExpireStalePayments cancels payments that have sat in
// PENDING_VERIFICATION past the configured window. The status guard in the
// WHERE clause keeps it from racing a concurrent admin decision.
func ExpireStalePayments(db *gorm.DB) {
	log.Println("Running job: ExpireStalePayments...")

	days := config.ConfigInt("PAYMENT_EXPIRY_DAYS", 7)
	cutoff := time.Now().AddDate(0, 0, -days)

	res := db.Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", models.PaymentPendingVerification, cutoff).
		Updates(map[string]interface{}{
			"status":      models.PaymentCancelled,
			"admin_notes": "Expired: no verification within the allowed window",
		})
	if res.Error != nil {
		log.Printf("Error expiring stale payments: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("Cancelled %d stale payment(s).", res.RowsAffected)
	} else {
		log.Println("No stale payments found.")
	}
}
