package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var priceLocale = language.MustParse("en-IN")

// FormatPrice renders a rupee amount with Indian digit grouping, e.g. ₹4,999.
func FormatPrice(amount int64) string {
	return message.NewPrinter(priceLocale).Sprintf("₹%d", amount)
}
