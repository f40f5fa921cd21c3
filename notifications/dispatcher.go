package notifications

import (
	"fmt"

	"github.com/chayanon29/learnpay/models"
)

// Dispatcher is the notification boundary of the payment flow. Concrete
// delivery is external; callers never depend on it succeeding.
type Dispatcher interface {
	NotifySuccess(payment models.Payment, order models.Order, user models.User)
	NotifyFailure(payment models.Payment, order models.Order, user models.User, reason string)
}

// EmailDispatcher delivers payment outcomes over the Brevo email service.
type EmailDispatcher struct{}

func NewEmailDispatcher() *EmailDispatcher {
	return &EmailDispatcher{}
}

func (d *EmailDispatcher) NotifySuccess(payment models.Payment, order models.Order, user models.User) {
	item := "purchase"
	if order.ItemType == models.ItemTypeCourse {
		item = "course"
	} else if order.ItemType == models.ItemTypeEbook {
		item = "e-book"
	}
	SendEmail(
		user.FullName,
		user.Email,
		"Payment Confirmed!",
		fmt.Sprintf("<h1>Payment Confirmed</h1><p>We have verified your bank transfer of %.2f and your %s is now unlocked. Thank you for your purchase!</p>", payment.Amount, item),
	)
}

func (d *EmailDispatcher) NotifyFailure(payment models.Payment, order models.Order, user models.User, reason string) {
	SendEmail(
		user.FullName,
		user.Email,
		"Problem with Your Payment",
		fmt.Sprintf("<h1>Payment Not Accepted</h1><p>We could not verify your transfer slip for order %s.</p><p>Reason: %s</p><p>Please upload a new slip or contact support.</p>", order.ID, reason),
	)
}
