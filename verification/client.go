package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	config "github.com/chayanon29/learnpay/configs"
)

// Error is a provider-side verification failure: timeout, auth problem or
// a malformed response. Callers treat it as "cannot auto-verify", not as a
// failed upload.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("slip verification failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("slip verification failed: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// Verifier is the slip-OCR capability the payment flow depends on.
type Verifier interface {
	Verify(ctx context.Context, filename string, image []byte) (*SlipReading, error)
}

// Client calls an HTTP slip-verification provider and normalizes its
// response. The concrete provider is swappable through BaseURL/APIKey.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

const defaultVerifyTimeout = 20 * time.Second

func NewClient() *Client {
	return &Client{
		BaseURL: config.Config("SLIP_VERIFY_URL"),
		APIKey:  config.Config("SLIP_VERIFY_API_KEY"),
		HTTPClient: &http.Client{
			Timeout: defaultVerifyTimeout,
		},
	}
}

// Verify uploads the slip image and returns the normalized reading.
// Network errors are retried once; anything still failing comes back as
// *Error.
func (c *Client) Verify(ctx context.Context, filename string, image []byte) (*SlipReading, error) {
	if c.BaseURL == "" {
		return nil, &Error{Reason: "slip verification provider not configured"}
	}

	resp, err := c.post(ctx, filename, image)
	if err != nil {
		log.Printf("Slip provider call failed, retrying once: %v", err)
		resp, err = c.post(ctx, filename, image)
	}
	if err != nil {
		return nil, &Error{Reason: "provider unreachable", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Reason: "failed to read provider response", Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &Error{Reason: fmt.Sprintf("provider rejected API key (status %d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Slip provider returned status %d: %s", resp.StatusCode, string(body))
		return nil, &Error{Reason: fmt.Sprintf("provider returned non-200 status: %d", resp.StatusCode)}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Reason: "malformed provider response", Cause: err}
	}

	if success, ok := payload["success"].(bool); ok && !success {
		msg := "provider could not read the slip"
		if m := pickString(payload, []string{"message", "error"}); m != nil {
			msg = *m
		}
		return nil, &Error{Reason: msg}
	}

	return NormalizeProviderResponse(payload), nil
}

func (c *Client) post(ctx context.Context, filename string, image []byte) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/verify", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-authorization", c.APIKey)

	return c.HTTPClient.Do(req)
}
