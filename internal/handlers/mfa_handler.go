package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/repclub/guard/internal/mfa"
	pkghttp "github.com/repclub/guard/pkg/http"
)

const defaultBackupCodeCount = 10

// MFAHandler exposes TOTP enrollment and verification
type MFAHandler struct {
	issuer string
	logger *slog.Logger
}

// NewMFAHandler creates a new MFAHandler
func NewMFAHandler(issuer string, logger *slog.Logger) *MFAHandler {
	return &MFAHandler{
		issuer: issuer,
		logger: logger,
	}
}

// EnrollRequest starts TOTP enrollment for an account
type EnrollRequest struct {
	AccountName string `json:"account_name" validate:"required,email"`
	Digits      int    `json:"digits,omitempty" validate:"omitempty,oneof=6 8"`
	Period      int    `json:"period,omitempty" validate:"omitempty,gt=0"`
}

// EnrollResponse carries everything the enrollment screen needs. The
// plaintext backup codes are shown once; only the hashes are stored.
type EnrollResponse struct {
	Secret           string   `json:"secret"`
	OTPAuthURI       string   `json:"otpauth_uri"`
	QRCode           string   `json:"qr_code"`
	BackupCodes      []string `json:"backup_codes"`
	BackupCodeHashes []string `json:"backup_code_hashes"`
}

// Enroll handles POST /v1/mfa/enrollments
func (h *MFAHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	secret, err := mfa.GenerateSecret(mfa.DefaultSecretLength)
	if err != nil {
		h.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to generate secret")
		return
	}

	uri := mfa.ProvisioningURI(secret, mfa.ProvisionOptions{
		Issuer:      h.issuer,
		AccountName: req.AccountName,
		Digits:      req.Digits,
		Period:      req.Period,
	})

	qr, err := mfa.ProvisioningQR(uri, 200)
	if err != nil {
		h.logger.Error("failed to render QR code", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to render QR code")
		return
	}

	codes, err := mfa.GenerateBackupCodes(defaultBackupCodeCount)
	if err != nil {
		h.logger.Error("failed to generate backup codes", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "failed to generate backup codes")
		return
	}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = mfa.HashBackupCode(code)
	}

	pkghttp.WriteJSON(w, http.StatusCreated, EnrollResponse{
		Secret:           secret,
		OTPAuthURI:       uri,
		QRCode:           qr,
		BackupCodes:      codes,
		BackupCodeHashes: hashes,
	})
}

// VerifyRequest checks a TOTP code against a secret
type VerifyRequest struct {
	Secret string `json:"secret" validate:"required"`
	Code   string `json:"code" validate:"required"`
	Window int    `json:"window,omitempty" validate:"omitempty,gte=0,lte=2"`
	Digits int    `json:"digits,omitempty" validate:"omitempty,oneof=6 8"`
	Period int    `json:"period,omitempty" validate:"omitempty,gt=0"`
}

// VerifyResponse reports the verification outcome
type VerifyResponse struct {
	Valid bool `json:"valid"`
	Delta *int `json:"delta,omitempty"`
}

// Verify handles POST /v1/mfa/verifications
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	verification, err := mfa.VerifyCode(req.Code, req.Secret, req.Window, mfa.CodeOptions{
		Digits: req.Digits,
		Period: req.Period,
	})
	if err != nil {
		pkghttp.WriteBadRequest(w, "invalid secret")
		return
	}

	resp := VerifyResponse{Valid: verification.Valid}
	if verification.Valid {
		delta := verification.Delta
		resp.Delta = &delta
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// BackupVerifyRequest checks a typed backup code against stored digests
type BackupVerifyRequest struct {
	Code   string   `json:"code" validate:"required"`
	Hashes []string `json:"hashes"`
}

// BackupVerifyResponse reports the match; UsedIndex tells the caller
// which stored digest to mark consumed
type BackupVerifyResponse struct {
	Valid     bool `json:"valid"`
	UsedIndex *int `json:"used_index,omitempty"`
}

// VerifyBackup handles POST /v1/mfa/backup-verifications
func (h *MFAHandler) VerifyBackup(w http.ResponseWriter, r *http.Request) {
	var req BackupVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	match := mfa.VerifyBackupCode(req.Code, req.Hashes)

	resp := BackupVerifyResponse{Valid: match.Valid}
	if match.Valid {
		index := match.UsedIndex
		resp.UsedIndex = &index
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
