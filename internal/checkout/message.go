package checkout

import (
	"fmt"
	"net/url"
)

// WhatsAppLink builds the wa.me deep link the customer is sent to after
// submitting. The message body is localized; unknown languages fall back
// to English.
func WhatsAppLink(whatsapp string, s *Session) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", whatsapp, url.QueryEscape(Message(s)))
}

func Message(s *Session) string {
	price := s.FinalPrice()

	discount := ""
	if s.Discount != nil {
		switch s.Lang {
		case "ar":
			discount = fmt.Sprintf(" (خصم %d%%)", s.Discount.Percent)
		case "he":
			discount = fmt.Sprintf(" (הנחה %d%%)", s.Discount.Percent)
		default:
			discount = fmt.Sprintf(" (Discount %d%%)", s.Discount.Percent)
		}
	}

	switch s.Lang {
	case "ar":
		return fmt.Sprintf(
			"*طلب جديد - Huutix Elite*\n--------------------------\n📦 الخدمة: %s\n💰 المبلغ: %d₪%s\n🔗 الرابط: %s\n📱 واتساب: %s\n🏦 الوسيلة: %s\n--------------------------\nلقد قمت بتحويل المبلغ وإرفاق الإيصال في الموقع. يرجى تأكيد الطلب.",
			s.PackageName, price, discount, s.Link, s.Phone, s.Method)
	case "he":
		return fmt.Sprintf(
			"*הזמנה חדשה - Huutix Elite*\n--------------------------\n📦 שירות: %s\n💰 סכום: %d₪%s\n🔗 לינק: %s\n📱 וואטסאפ: %s\n🏦 אמצעי תשלום: %s\n--------------------------\nביצעתי את ההעברה וצירפתי קבלה באתר. נא לאשר את ההזמנה.",
			s.PackageName, price, discount, s.Link, s.Phone, s.Method)
	case "ru":
		return fmt.Sprintf(
			"*Новый заказ - Huutix Elite*\n--------------------------\n📦 Услуга: %s\n💰 Сумма: %d₪\n🔗 Ссылка: %s\n📱 WhatsApp: %s\n--------------------------\nЯ перевел сумму и прикрепил чек. Пожалуйста, подтвердите заказ.",
			s.PackageName, price, s.Link, s.Phone)
	default:
		return fmt.Sprintf(
			"*New Order - Huutix Elite*\n--------------------------\n📦 Service: %s\n💰 Amount: %d₪%s\n🔗 Link: %s\n📱 WhatsApp: %s\n🏦 Method: %s\n--------------------------\nI have transferred the amount and attached the receipt on the site. Please confirm the order.",
			s.PackageName, price, discount, s.Link, s.Phone, s.Method)
	}
}
