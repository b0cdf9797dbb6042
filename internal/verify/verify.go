// Package verify handles phone ownership checks for certificate
// issuance. The demo verifier uses a fixed code and masks locally; the
// HTTP verifier delegates to a remote OTP service.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// DemoCode is the fixed six-digit code accepted in demo mode.
const DemoCode = "123456"

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrVerificationFailed = errors.New("verification failed")
)

// Result is the outcome of a successful code check.
type Result struct {
	MaskedPhone string
}

// Verifier requests and checks one-time codes. Later calls supersede
// earlier pending ones; only a single verification flow is in flight
// per device.
type Verifier interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (Result, error)
}

// MaskPhone reduces a phone number to its displayable masked form,
// keeping only the last four digits.
func MaskPhone(phone string) string {
	digits := digitsOf(phone)
	if len(digits) >= 8 {
		return "010-****-" + digits[len(digits)-4:]
	}
	return "010-****-****"
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DemoVerifier accepts the fixed demo code and computes the mask
// locally, with no network round trip.
type DemoVerifier struct{}

func (DemoVerifier) RequestCode(ctx context.Context, phone string) error {
	if len(digitsOf(phone)) < 10 {
		return ErrInvalidPhone
	}
	slog.InfoContext(ctx, "Demo verification code issued", "code", DemoCode)
	return nil
}

func (DemoVerifier) VerifyCode(_ context.Context, phone, code string) (Result, error) {
	if code != DemoCode {
		return Result{}, ErrVerificationFailed
	}
	return Result{MaskedPhone: MaskPhone(phone)}, nil
}

// HTTPVerifier posts to a remote OTP service.
type HTTPVerifier struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPVerifier(baseURL string) *HTTPVerifier {
	return &HTTPVerifier{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPVerifier) RequestCode(ctx context.Context, phone string) error {
	if len(digitsOf(phone)) < 10 {
		return ErrInvalidPhone
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := v.post(ctx, "/otp/request", map[string]string{"phone": phone}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return ErrVerificationFailed
	}
	return nil
}

func (v *HTTPVerifier) VerifyCode(ctx context.Context, phone, code string) (Result, error) {
	var resp struct {
		Success bool   `json:"success"`
		Masked  string `json:"masked"`
	}
	if err := v.post(ctx, "/otp/verify", map[string]string{"phone": phone, "code": code}, &resp); err != nil {
		return Result{}, err
	}
	if !resp.Success {
		return Result{}, ErrVerificationFailed
	}
	masked := resp.Masked
	if masked == "" {
		masked = MaskPhone(phone)
	}
	return Result{MaskedPhone: masked}, nil
}

func (v *HTTPVerifier) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode otp request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("otp service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("otp service: %w (status %d)", ErrVerificationFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode otp response: %w", err)
	}
	return nil
}
