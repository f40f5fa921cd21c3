package receipts

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"time"

	"github.com/chayanon29/learnpay/models"
	"github.com/chayanon29/learnpay/storage"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"gorm.io/gorm"
)

// Service renders a PDF receipt for a settled payment and stores it. It
// runs after the settlement transaction commits and never fails it.
type Service struct {
	DB      *gorm.DB
	Storage storage.Uploader
}

func NewService(db *gorm.DB, store storage.Uploader) *Service {
	return &Service{DB: db, Storage: store}
}

func (s *Service) Generate(payment models.Payment, order models.Order, user models.User) {
	if s.Storage == nil {
		log.Printf("Receipt storage not configured, skipping receipt for payment %s", payment.ID)
		return
	}

	htmlData, err := renderReceiptHTML(payment, order, user)
	if err != nil {
		log.Printf("🔥 Failed to render receipt HTML for payment %s: %v", payment.ID, err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF for payment %s: %v", payment.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	receiptURL, err := s.Storage.UploadReceipt(ctx, payment.ID.String(), pdfBytes)
	if err != nil {
		log.Printf("🔥 Failed to upload receipt for payment %s: %v", payment.ID, err)
		return
	}

	if err := s.DB.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("receipt_url", receiptURL).Error; err != nil {
		log.Printf("🔥 Failed to save receipt URL for payment %s: %v", payment.ID, err)
		return
	}
	log.Printf("✅ Generated receipt for payment %s", payment.ID)
}

func renderReceiptHTML(payment models.Payment, order models.Order, user models.User) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	receiptNo := payment.ID.String()
	if payment.ReceiptNo != nil {
		receiptNo = *payment.ReceiptNo
	}
	paidAt := time.Now()
	if payment.PaidAt != nil {
		paidAt = *payment.PaidAt
	}

	data := struct {
		ReceiptNo      string
		CustomerName   string
		ItemType       string
		Subtotal       float64
		ShippingFee    float64
		CouponDiscount float64
		Total          float64
		PaidAt         string
	}{
		ReceiptNo:      receiptNo,
		CustomerName:   user.FullName,
		ItemType:       order.ItemType,
		Subtotal:       order.Subtotal,
		ShippingFee:    order.ShippingFee,
		CouponDiscount: order.CouponDiscount,
		Total:          order.Total,
		PaidAt:         paidAt.Format("January 2, 2006 15:04"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
