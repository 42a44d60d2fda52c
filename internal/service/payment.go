package service

import (
	"strings"
	"unicode"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var cashWords = []string{"cash", "dinheiro", "especie", "efectivo", "money"}

var cardWords = []string{"cart", "card", "credit", "debit"}

// NormalizePaymentMethod maps free-form client input ("Cartão", "PIX",
// "dinheiro") to cash, card or pix. Unknown or empty input is cash.
func NormalizePaymentMethod(raw string) string {
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return model.PaymentCash
	}
	if strings.Contains(s, "pix") {
		return model.PaymentPix
	}
	for _, w := range cashWords {
		if strings.Contains(s, w) {
			return model.PaymentCash
		}
	}
	for _, w := range cardWords {
		if strings.Contains(s, w) {
			return model.PaymentCard
		}
	}
	return model.PaymentCash
}

// resolvePaymentMethod prefers the finalize hint over a value already stored
// on the order.
func resolvePaymentMethod(hint, prior string) string {
	if strings.TrimSpace(hint) != "" {
		return NormalizePaymentMethod(hint)
	}
	return NormalizePaymentMethod(prior)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
