package mfa

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Backup Code Generation Tests
// ============================================================================

func TestGenerateBackupCodes_FormatAndUniqueness(t *testing.T) {
	codes, err := GenerateBackupCodes(100)
	require.NoError(t, err)
	require.Len(t, codes, 100)

	format := regexp.MustCompile(`^[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{4}-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{4}$`)
	seen := make(map[string]bool, len(codes))

	for _, code := range codes {
		assert.Regexp(t, format, code)
		assert.False(t, seen[code], "duplicate code %s in batch", code)
		seen[code] = true
	}
}

func TestGenerateBackupCodes_NoAmbiguousCharacters(t *testing.T) {
	codes, err := GenerateBackupCodes(50)
	require.NoError(t, err)

	for _, code := range codes {
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "L")
	}
}

func TestGenerateBackupCodes_ZeroCount(t *testing.T) {
	codes, err := GenerateBackupCodes(0)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

// ============================================================================
// Normalization and Hashing Tests
// ============================================================================

func TestNormalizeBackupCode_EquivalentForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ABCD-EFGH", "ABCDEFGH"},
		{"abcd-efgh", "ABCDEFGH"},
		{"ABCDEFGH", "ABCDEFGH"},
		{" abcd efgh ", "ABCDEFGH"},
		{"ab-cd-ef-gh", "ABCDEFGH"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBackupCode(tt.input), "input %q", tt.input)
	}
}

func TestHashBackupCode_NormalizesBeforeHashing(t *testing.T) {
	base := HashBackupCode("ABCD-EFGH")

	assert.Equal(t, base, HashBackupCode("abcd-efgh"))
	assert.Equal(t, base, HashBackupCode("ABCDEFGH"))
	assert.NotEqual(t, base, HashBackupCode("ABCD-EFGJ"))
	assert.Regexp(t, `^[0-9a-f]{64}$`, base)
}

// ============================================================================
// Backup Code Verification Tests
// ============================================================================

func TestVerifyBackupCode_MatchesAndReportsIndex(t *testing.T) {
	codes, err := GenerateBackupCodes(3)
	require.NoError(t, err)

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = HashBackupCode(code)
	}

	match := VerifyBackupCode(codes[1], hashes)
	assert.True(t, match.Valid)
	assert.Equal(t, 1, match.UsedIndex)

	// A typed lowercase variant matches the same stored digest
	match = VerifyBackupCode("  "+codes[2]+"  ", hashes)
	assert.True(t, match.Valid)
	assert.Equal(t, 2, match.UsedIndex)
}

func TestVerifyBackupCode_NoMatch(t *testing.T) {
	codes, err := GenerateBackupCodes(3)
	require.NoError(t, err)

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = HashBackupCode(code)
	}

	match := VerifyBackupCode("ZZZZ-ZZZZ", hashes)
	assert.False(t, match.Valid)
	assert.Equal(t, -1, match.UsedIndex)
}

func TestVerifyBackupCode_EmptyHashList(t *testing.T) {
	match := VerifyBackupCode("ABCD-EFGH", nil)
	assert.False(t, match.Valid)
	assert.Equal(t, -1, match.UsedIndex)
}
