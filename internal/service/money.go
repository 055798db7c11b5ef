package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var gbp = message.NewPrinter(language.BritishEnglish)

// FormatCurrency renders whole pounds with thousands separators, e.g. £1,234,567.
func FormatCurrency(amount int64) string {
	return gbp.Sprintf("£%d", amount)
}
