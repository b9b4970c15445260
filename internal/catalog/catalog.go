// Package catalog holds the static service offering. Quantities are
// user-selected within per-service bounds and priced off a unit rate.
package catalog

import (
	"fmt"
	"math"
)

type Service struct {
	ID          string            `json:"id"`
	Titles      map[string]string `json:"titles"`
	Description map[string]string `json:"description"`
	Badge       map[string]string `json:"badge"`
	UnitPrice   float64           `json:"unit_price"`
	Min         int               `json:"min"`
	Max         int               `json:"max"`
	Step        int               `json:"step"`
}

var services = []Service{
	{
		ID: "followers",
		Titles: map[string]string{
			"en": "Elite VIP Followers", "he": "עוקבי VIP פרימיום", "ar": "متابعون VIP نخبة", "ru": "VIP Подписчики",
		},
		Description: map[string]string{
			"en": "Stable profiles with 30-day guarantee.", "he": "פרופילים יציבים עם אחריות ל-30 יום.",
		},
		Badge:     map[string]string{"en": "GROWTH", "he": "צמיחה", "ar": "نمو سريع"},
		UnitPrice: 0.12,
		Min:       500, Max: 100000, Step: 500,
	},
	{
		ID: "likes",
		Titles: map[string]string{
			"en": "Power Viral Likes", "he": "לייקים ויראליים עוצמתיים", "ar": "إعجابات قوية (Viral)", "ru": "Лайки",
		},
		Description: map[string]string{
			"en": "Boost engagement instantly.", "he": "הגדלת מעורבות באופן מיידי.",
		},
		Badge:     map[string]string{"en": "VIRAL", "he": "ויראלי", "ar": "انتشار"},
		UnitPrice: 0.055,
		Min:       1000, Max: 50000, Step: 500,
	},
	{
		ID: "comments",
		Titles: map[string]string{
			"en": "Professional HQ Comments", "he": "תגובות איכותיות", "ar": "تعليقات عالية الجودة", "ru": "Комментарии",
		},
		Description: map[string]string{
			"en": "Build trust with real comments.", "he": "בניית אמון עם תגובות אמיתיות.",
		},
		Badge:     map[string]string{"en": "TRUST", "he": "אמינות", "ar": "ثقة"},
		UnitPrice: 0.40,
		Min:       10, Max: 1000, Step: 5,
	},
	{
		ID: "views",
		Titles: map[string]string{
			"en": "Ultra Fast Reels Views", "he": "צפיות VIP לסרטונים", "ar": "مشاهدات ريلز نخبة", "ru": "Просмотры",
		},
		Description: map[string]string{
			"en": "High retention video views.", "he": "צפיות איכותיות לסרטונים.",
		},
		Badge:     map[string]string{"en": "POPULAR", "he": "פופולרי", "ar": "شهرة"},
		UnitPrice: 0.05,
		Min:       1000, Max: 500000, Step: 1000,
	},
}

func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

func ByID(id string) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Price computes the integer price for a quantity of a service, validating
// the quantity against the service bounds and step.
func Price(id string, quantity int) (int, error) {
	svc, ok := ByID(id)
	if !ok {
		return 0, fmt.Errorf("unknown service %q", id)
	}
	if quantity < svc.Min || quantity > svc.Max {
		return 0, fmt.Errorf("quantity %d out of range [%d, %d] for service %q", quantity, svc.Min, svc.Max, id)
	}
	if quantity%svc.Step != 0 {
		return 0, fmt.Errorf("quantity %d is not a multiple of %d for service %q", quantity, svc.Step, id)
	}
	return int(math.Round(float64(quantity) * svc.UnitPrice)), nil
}
