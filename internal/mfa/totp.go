// Package mfa implements the platform's step-up authentication primitives:
// TOTP secrets and codes, provisioning URIs for authenticator apps, and
// single-use backup recovery codes.
package mfa

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Defaults match what the major authenticator apps assume
const (
	DefaultSecretLength = 20
	DefaultDigits       = 6
	DefaultPeriod       = 30
)

// CodeOptions configures TOTP generation and verification. Zero values
// fall back to the defaults; the zero Algorithm is SHA1. Counter, when
// set, overrides the time-derived counter (used for testing and for
// windowed verification).
type CodeOptions struct {
	Digits    int
	Period    int
	Counter   *uint64
	Algorithm otp.Algorithm
}

func (o CodeOptions) withDefaults() CodeOptions {
	if o.Digits <= 0 {
		o.Digits = DefaultDigits
	}
	if o.Period <= 0 {
		o.Period = DefaultPeriod
	}
	return o
}

// Verification is the result of a windowed TOTP check. Delta is the
// offset of the matching counter from the current one (0 when the code is
// current, -1 when it is one period old).
type Verification struct {
	Valid bool
	Delta int
}

// GenerateSecret returns a fresh Base32-encoded secret of byteLength
// random bytes (DefaultSecretLength when byteLength <= 0)
func GenerateSecret(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultSecretLength
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	return EncodeBase32(buf), nil
}

// GenerateCode computes the TOTP code for secret at the current time, or
// at opts.Counter when supplied. The same (secret, counter) pair always
// yields the same code.
func GenerateCode(secret string, opts CodeOptions) (string, error) {
	opts = opts.withDefaults()

	counter := currentCounter(opts)

	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.Digits(opts.Digits),
		Algorithm: opts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP code: %w", err)
	}

	return code, nil
}

// VerifyCode checks code against the counters from current-window to
// current+window inclusive. The first matching counter wins; codes outside
// the window are rejected even if they were valid at some past counter.
func VerifyCode(code, secret string, window int, opts CodeOptions) (Verification, error) {
	opts = opts.withDefaults()
	if window < 0 {
		window = 0
	}

	current := currentCounter(opts)

	for delta := -window; delta <= window; delta++ {
		if delta < 0 && uint64(-delta) > current {
			continue
		}
		var candidate uint64
		if delta < 0 {
			candidate = current - uint64(-delta)
		} else {
			candidate = current + uint64(delta)
		}

		expected, err := hotp.GenerateCodeCustom(secret, candidate, hotp.ValidateOpts{
			Digits:    otp.Digits(opts.Digits),
			Algorithm: opts.Algorithm,
		})
		if err != nil {
			return Verification{}, fmt.Errorf("failed to compute candidate code: %w", err)
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return Verification{Valid: true, Delta: delta}, nil
		}
	}

	return Verification{Valid: false}, nil
}

func currentCounter(opts CodeOptions) uint64 {
	if opts.Counter != nil {
		return *opts.Counter
	}
	return uint64(time.Now().Unix() / int64(opts.Period))
}
