package voucher

import "github.com/shopspring/decimal"

func formatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
