package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/huutix/storefront/internal/metrics"
	"github.com/huutix/storefront/internal/repository"
	"github.com/huutix/storefront/internal/storage"
)

type Source string

const (
	SourceAffiliate Source = "affiliate"
	SourceMaster    Source = "master"
	SourceFlash     Source = "flash"
)

// Affiliate codes always give the customer a flat percentage, independent
// of the affiliate's own commission tier.
const AffiliateDiscountPercent = 15

const FlashDiscountPercent = 15

type Discount struct {
	Code        string
	Percent     int
	Source      Source
	AffiliateID int64
}

type Service struct {
	affiliates storage.AffiliateRepository
	coupons    storage.CouponRepository
	flashCodes storage.FlashCodeRepository
}

func NewService(affiliates storage.AffiliateRepository, coupons storage.CouponRepository, flashCodes storage.FlashCodeRepository) *Service {
	return &Service{
		affiliates: affiliates,
		coupons:    coupons,
		flashCodes: flashCodes,
	}
}

// Resolve looks a code up across the three discount collections in fixed
// priority: affiliate codes first, then master coupons, then flash codes.
// The first match wins.
func (s *Service) Resolve(ctx context.Context, code string) (*Discount, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return nil, repository.ErrCouponNotFound
	}

	affiliate, err := s.affiliates.GetByCouponCode(ctx, normalized)
	if err == nil {
		return &Discount{
			Code:        normalized,
			Percent:     AffiliateDiscountPercent,
			Source:      SourceAffiliate,
			AffiliateID: affiliate.ID,
		}, nil
	}
	if !errors.Is(err, repository.ErrObjectNotFound) {
		return nil, fmt.Errorf("failed to resolve affiliate code: %w", err)
	}

	coupon, err := s.coupons.GetActiveByCode(ctx, normalized)
	if err == nil {
		return &Discount{
			Code:    normalized,
			Percent: coupon.Discount,
			Source:  SourceMaster,
		}, nil
	}
	if !errors.Is(err, repository.ErrObjectNotFound) {
		return nil, fmt.Errorf("failed to resolve master coupon: %w", err)
	}

	flash, err := s.flashCodes.GetByCode(ctx, normalized)
	if err == nil {
		return &Discount{
			Code:    normalized,
			Percent: flash.Discount,
			Source:  SourceFlash,
		}, nil
	}
	if !errors.Is(err, repository.ErrObjectNotFound) {
		return nil, fmt.Errorf("failed to resolve flash code: %w", err)
	}

	return nil, repository.ErrCouponNotFound
}

// GenerateFlashCode mints a VIP-XXXX code and persists it so checkout can
// honor it later.
func (s *Service) GenerateFlashCode(ctx context.Context) (*repository.FlashCode, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = letters[rand.Intn(len(letters))]
	}

	flash := &repository.FlashCode{
		Code:      "VIP-" + string(suffix),
		Discount:  FlashDiscountPercent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.flashCodes.Create(ctx, flash); err != nil {
		return nil, fmt.Errorf("failed to store flash code: %w", err)
	}

	metrics.FlashCodesGeneratedTotal.Inc()
	return flash, nil
}

// Normalize trims surrounding whitespace and uppercases, so stored codes
// compare case-insensitively against user input.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FinalPrice applies a percentage discount to a base price, rounding half
// up on the integer currency unit. A zero percent leaves the price intact.
func FinalPrice(base, percent int) int {
	if percent <= 0 {
		return base
	}
	discounted := float64(base) * (1 - float64(percent)/100)
	return int(math.Floor(discounted + 0.5))
}
