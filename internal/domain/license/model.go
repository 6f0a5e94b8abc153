package license

import (
	"fmt"
	"unicode/utf8"

	"github.com/makkenzo/entitlement-service/internal/clock"
)

const MaxMachineCodeLength = 32

// NeverExpires is reported to clients when network verification is switched off.
const NeverExpires = "2099-12-31 23:59:59"

// License is the entitlement record of one machine identifier. Seq orders
// licenses by insertion and is assigned by the store.
type License struct {
	Seq            int64  `db:"id" json:"-"`
	MachineCode    string `db:"machine_code" json:"machine_code"`
	ExpireDate     string `db:"expire_date" json:"expire_date"`
	RegDate        string `db:"reg_date" json:"reg_date"`
	Category       string `db:"category" json:"category"`
	Remark         string `db:"remark" json:"remark"`
	CipherConfigID string `db:"cipher_config_id" json:"cipher_config_id"`
}

// MachineCodeTooLong reports whether code exceeds MaxMachineCodeLength
// characters.
func MachineCodeTooLong(code string) bool {
	return utf8.RuneCountInString(code) > MaxMachineCodeLength
}

// Row is the fixed-order tuple rendered in listings.
func (l *License) Row() []any {
	return []any{l.MachineCode, l.ExpireDate, l.RegDate, l.Category, l.Remark, l.CipherConfigID}
}

// ActiveAt reports whether the license is still valid at now. Both sides are
// canonical timestamps, so string order is chronological order.
func (l *License) ActiveAt(now string) bool {
	return l.ExpireDate > now
}

// Extend computes the expiry after granting days: the extension starts from
// the current expiry when it has not passed yet, otherwise from now.
func Extend(c clock.Clock, currentExpire string, days int) (string, error) {
	now := c.Now()
	base := now
	if currentExpire >= clock.Format(c, now) {
		parsed, err := clock.Parse(c, currentExpire)
		if err != nil {
			return "", fmt.Errorf("stored expiry unreadable: %w", err)
		}
		base = parsed
	}
	return clock.Format(c, base.AddDate(0, 0, days)), nil
}
