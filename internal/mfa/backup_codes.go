package mfa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
)

// Charset: A-Z 2-9 excluding 0/O/1/I/L which are ambiguous when read
// from paper
const backupCodeCharset = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const backupCodeLength = 8

// Match is the result of checking a backup code against the stored
// digests. UsedIndex is the position of the first matching digest, or -1
// when Valid is false, so the caller can mark exactly that code consumed.
type Match struct {
	Valid     bool
	UsedIndex int
}

// GenerateBackupCodes produces count single-use recovery codes in the
// form XXXX-XXXX. Codes are pairwise-unique within one batch.
func GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, 0, count)
	seen := make(map[string]bool, count)

	for len(codes) < count {
		raw := make([]byte, backupCodeLength)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("failed to generate random bytes: %w", err)
		}

		chars := make([]byte, backupCodeLength)
		for i, b := range raw {
			chars[i] = backupCodeCharset[int(b)%len(backupCodeCharset)]
		}

		code := string(chars[:4]) + "-" + string(chars[4:])
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	return codes, nil
}

// NormalizeBackupCode uppercases a typed code and strips separators so
// "abcd-efgh", "ABCD-EFGH", and "ABCDEFGH" are all the same code
func NormalizeBackupCode(code string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// HashBackupCode returns the lowercase hex SHA-256 digest of the
// normalized code. Only digests are stored; the plaintext batch is shown
// to the user once.
func HashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(NormalizeBackupCode(code)))
	return fmt.Sprintf("%x", sum)
}

// VerifyBackupCode checks a typed code against the stored digests.
// Single-use consumption is the store's job: the caller must mark the
// code at UsedIndex consumed with an update-if-unused operation.
func VerifyBackupCode(code string, hashes []string) Match {
	candidate := HashBackupCode(code)

	for i, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(h)) == 1 {
			return Match{Valid: true, UsedIndex: i}
		}
	}

	return Match{Valid: false, UsedIndex: -1}
}
