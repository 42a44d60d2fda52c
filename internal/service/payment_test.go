package service

import (
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"":                  model.PaymentCash,
		"Cartão":            model.PaymentCard,
		"CARTAO DE CREDITO": model.PaymentCard,
		"débito":            model.PaymentCard,
		"card":              model.PaymentCard,
		"PIX":               model.PaymentPix,
		" pix ":             model.PaymentPix,
		"Dinheiro":          model.PaymentCash,
		"espécie":           model.PaymentCash,
		"vale refeição":     model.PaymentCash,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePaymentMethod(in), "input %q", in)
	}
}

func TestResolvePaymentMethodPrefersHint(t *testing.T) {
	assert.Equal(t, model.PaymentPix, resolvePaymentMethod("pix", model.PaymentCard))
	assert.Equal(t, model.PaymentCard, resolvePaymentMethod("  ", model.PaymentCard))
	assert.Equal(t, model.PaymentCash, resolvePaymentMethod("", ""))
}
