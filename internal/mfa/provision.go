package mfa

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// ProvisionOptions configures the otpauth URI handed to authenticator
// apps. Digits, Period, and Algorithm are emitted only when supplied; the
// app falls back to its own defaults otherwise.
type ProvisionOptions struct {
	Issuer      string
	AccountName string
	Digits      int
	Period      int
	Algorithm   string // SHA1, SHA256, or SHA512
}

// ProvisioningURI builds the otpauth://totp/ URI for a secret. Every
// component is percent-encoded.
func ProvisioningURI(secret string, opts ProvisionOptions) string {
	v := url.Values{}
	v.Set("secret", secret)
	if opts.Issuer != "" {
		v.Set("issuer", opts.Issuer)
	}
	if opts.Algorithm != "" {
		v.Set("algorithm", opts.Algorithm)
	}
	if opts.Digits > 0 {
		v.Set("digits", strconv.Itoa(opts.Digits))
	}
	if opts.Period > 0 {
		v.Set("period", strconv.Itoa(opts.Period))
	}

	label := opts.AccountName
	if opts.Issuer != "" {
		label = opts.Issuer + ":" + opts.AccountName
	}

	return "otpauth://totp/" + url.PathEscape(label) + "?" + v.Encode()
}

// ProvisioningQR renders a provisioning URI as a PNG data URL for the
// enrollment screen. size is the PNG edge length in pixels.
func ProvisioningQR(uri string, size int) (string, error) {
	if size <= 0 {
		size = 200
	}

	qr, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
