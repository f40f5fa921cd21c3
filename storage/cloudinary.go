package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	config "github.com/chayanon29/learnpay/configs"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores customer slip images and generated receipts, returning a
// public URL. Concrete storage is an external collaborator.
type Uploader interface {
	UploadSlip(ctx context.Context, paymentID, filename string, data []byte) (string, error)
	UploadReceipt(ctx context.Context, paymentID string, pdf []byte) (string, error)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader() (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %v", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) UploadSlip(ctx context.Context, paymentID, filename string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	uploadResult, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: fmt.Sprintf("slips/%s", paymentID),
		Folder:   "learnpay_slips",
	})
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}

func (u *CloudinaryUploader) UploadReceipt(ctx context.Context, paymentID string, pdf []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	uploadResult, err := u.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s", paymentID),
		Folder:       "learnpay_receipts",
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}
