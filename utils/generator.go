package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chayanon29/learnpay/models"
	"gorm.io/gorm"
)

const receiptCodeLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueReceiptNumber returns a receipt number that no payment in
// the database is using yet, e.g. RCPT-7K2M9QXZ.
func GenerateUniqueReceiptNumber(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, receiptCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		receiptNo := fmt.Sprintf("RCPT-%s", string(b))

		var payment models.Payment
		err := tx.Where("receipt_no = ?", receiptNo).First(&payment).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return receiptNo, nil
			}
			return "", err
		}
	}
}
