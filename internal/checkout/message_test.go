package checkout_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huutix/storefront/internal/checkout"
	"github.com/huutix/storefront/internal/pricing"
)

func TestMessageLocalization(t *testing.T) {
	base := checkout.Session{
		PackageName: "1000 Followers",
		BasePrice:   1000,
		Link:        "https://instagram.com/someone",
		Phone:       "0541234567",
		Method:      "Bit",
		Discount:    &pricing.Discount{Code: "DANA15", Percent: 15},
	}

	tests := []struct {
		lang     string
		contains []string
	}{
		{"en", []string{"*New Order - Huutix Elite*", "850₪", "(Discount 15%)", "Bit"}},
		{"he", []string{"*הזמנה חדשה - Huutix Elite*", "850₪", "(הנחה 15%)"}},
		{"ar", []string{"*طلب جديد - Huutix Elite*", "850₪", "(خصم 15%)"}},
		{"xx", []string{"*New Order - Huutix Elite*"}},
	}

	for _, tc := range tests {
		t.Run(tc.lang, func(t *testing.T) {
			s := base
			s.Lang = tc.lang
			msg := checkout.Message(&s)
			for _, want := range tc.contains {
				assert.Contains(t, msg, want)
			}
		})
	}

	t.Run("ru omits discount and method lines", func(t *testing.T) {
		s := base
		s.Lang = "ru"
		msg := checkout.Message(&s)
		assert.Contains(t, msg, "*Новый заказ - Huutix Elite*")
		assert.NotContains(t, msg, "15%")
		assert.NotContains(t, msg, "Bit")
	})
}

func TestWhatsAppLinkEscapesMessage(t *testing.T) {
	s := checkout.Session{
		Lang:        "en",
		PackageName: "1000 Followers",
		BasePrice:   120,
		Link:        "https://instagram.com/someone",
		Phone:       "0541234567",
		Method:      "Bit",
	}

	link := checkout.WhatsAppLink("972522426476", &s)
	require.True(t, strings.HasPrefix(link, "https://wa.me/972522426476?text="))
	assert.NotContains(t, link, "\n")
	assert.NotContains(t, link, " ")

	encoded := strings.TrimPrefix(link, "https://wa.me/972522426476?text=")
	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, checkout.Message(&s), decoded)
}
