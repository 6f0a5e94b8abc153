package card

import "strconv"

const (
	NumberSuffixLength = 5
	PasswordLength     = 8
)

// Card is a single-use prepaid token. UsedMachineCode and UsedAt are set
// exactly when Used is true.
type Card struct {
	Seq             int64  `db:"id" json:"-"`
	CardNumber      string `db:"card_number" json:"card_number"`
	CardPassword    string `db:"card_password" json:"card_password"`
	Days            int    `db:"days" json:"days"`
	Used            bool   `db:"used" json:"used"`
	UsedMachineCode string `db:"used_machine_code" json:"used_machine_code"`
	UsedAt          string `db:"used_at" json:"used_at"`
}

// Row is the fixed-order tuple rendered in listings. Used is rendered as a
// string so every caller displays it the same way.
func (c *Card) Row() []any {
	return []any{c.CardNumber, c.CardPassword, c.Days, strconv.FormatBool(c.Used), c.UsedMachineCode, c.UsedAt}
}

// Issued is the triple handed back to the operator after issuance.
func (c *Card) Issued() []any {
	return []any{c.CardNumber, c.CardPassword, c.Days}
}
