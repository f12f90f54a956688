// Package voucher assembles finalized TDY vouchers from an estimate and
// tracks a trip through Draft, Estimated and Finalized.
package voucher

import (
	"crypto/sha256"
	"encoding/hex"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

// namespace scopes voucher IDs so the same fingerprints always name the same voucher.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:tdy-voucher:voucher"))

// TdyVoucher is an immutable snapshot. It carries no wall-clock fields, so
// assembling it twice from the same inputs exports the same bytes.
type TdyVoucher struct {
	ID                  string          `json:"id"`
	Trip                trip.Summary    `json:"trip"`
	Checklist           []string        `json:"checklist"`
	Estimate            estimate.Totals `json:"estimate"`
	InputFingerprint    string          `json:"input_fingerprint"`
	EstimateFingerprint string          `json:"estimate_fingerprint"`
}

func (v *TdyVoucher) Ready() bool {
	return len(v.Checklist) == 0
}

// Export renders the canonical JSON form of the voucher.
func (v *TdyVoucher) Export() ([]byte, error) {
	return json.Marshal(v)
}

// ExportIndent is Export for people: same content, indented.
func (v *TdyVoucher) ExportIndent() ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func Import(b []byte) (*TdyVoucher, error) {
	var v TdyVoucher
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func estimateFingerprint(totals estimate.Totals) (string, error) {
	b, err := json.Marshal(totals)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func voucherID(inputFingerprint, estimateFingerprint string) string {
	return uuid.NewSHA1(namespace, []byte(inputFingerprint+":"+estimateFingerprint)).String()
}
