package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/internal/catalog"
	"github.com/tapline/sugarhouse-backend/pkg/config"
	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

// Service computes cart quotes for the payment collaborator.
type Service interface {
	QuoteCart(ctx context.Context, input QuoteInput) (*CartQuote, error)
}

// QuoteItem is one cart line.
type QuoteItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// QuoteInput holds the validated checkout payload.
type QuoteInput struct {
	UserID               uuid.UUID
	Items                []QuoteItem
	MembershipOfferingID *uuid.UUID
	TipCents             int
}

// CartQuote is the computed amount handed to the payment collaborator.
type CartQuote struct {
	SubtotalCents            int                 `json:"subtotal_cents"`
	TaxCents                 int                 `json:"tax_cents"`
	TaxBreakdown             map[uuid.UUID]int   `json:"tax_breakdown"`
	MembershipCents          int                 `json:"membership_cents"`
	TipCents                 int                 `json:"tip_cents"`
	TotalCents               int                 `json:"total_cents"`
	RecommendedPaymentMethod enums.PaymentMethod `json:"recommended_payment_method"`
}

type service struct {
	catalogRepo *catalog.Repository
	cfg         config.CheckoutConfig
	now         func() time.Time
}

// NewService constructs a checkout service instance.
func NewService(catalogRepo *catalog.Repository, cfg config.CheckoutConfig) (Service, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if cfg.MinChargeCents < 0 {
		return nil, fmt.Errorf("minimum charge must be non-negative")
	}
	return &service{catalogRepo: catalogRepo, cfg: cfg, now: time.Now}, nil
}

// QuoteCart resolves per-club pricing, per-line tax, membership fee, and tip
// into the final chargeable total. Stale lines (missing product, non-positive
// quantity) are silently excluded; a closed preorder window rejects the whole
// cart.
func (s *service) QuoteCart(ctx context.Context, input QuoteInput) (*CartQuote, error) {
	if input.TipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip_cents must be non-negative")
	}

	clubCodes, err := s.catalogRepo.MemberClubCodes(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member clubs")
	}

	now := s.now().UTC()
	quote := &CartQuote{TaxBreakdown: map[uuid.UUID]int{}, TipCents: input.TipCents}
	rateCache := map[uuid.UUID]*models.TaxRate{}

	for _, item := range input.Items {
		if item.Quantity <= 0 {
			continue
		}

		product, err := s.catalogRepo.FindProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if err := checkPreorderWindow(product, now); err != nil {
			return nil, err
		}

		unitPrice := ResolveUnitPrice(product, clubCodes)
		lineSubtotal := unitPrice * item.Quantity
		quote.SubtotalCents += lineSubtotal

		if product.TaxRateID != nil {
			rate, ok := rateCache[*product.TaxRateID]
			if !ok {
				rate, err = s.catalogRepo.FindTaxRate(ctx, *product.TaxRateID)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rate")
				}
				rateCache[*product.TaxRateID] = rate
			}
			quote.TaxBreakdown[rate.ID] += lineTax(lineSubtotal, rate.RatePercent)
		}
	}

	for _, cents := range quote.TaxBreakdown {
		quote.TaxCents += cents
	}

	if input.MembershipOfferingID != nil {
		offering, err := s.catalogRepo.FindMembershipOffering(ctx, *input.MembershipOfferingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership offering not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership offering")
		}
		// Flat price, no tax on membership fees.
		quote.MembershipCents = offering.PriceCents
	}

	quote.TotalCents = quote.SubtotalCents + quote.TaxCents + quote.MembershipCents + quote.TipCents

	if quote.TotalCents < s.cfg.MinChargeCents {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimumCharge, "cart total is below the minimum charge").
			WithDetails(map[string]any{
				"total_cents":   quote.TotalCents,
				"minimum_cents": s.cfg.MinChargeCents,
			})
	}

	quote.RecommendedPaymentMethod = enums.PaymentMethodCard
	if s.cfg.ACHThresholdCents > 0 && quote.TotalCents >= s.cfg.ACHThresholdCents {
		quote.RecommendedPaymentMethod = enums.PaymentMethodACH
	}
	return quote, nil
}

// ResolveUnitPrice picks the effective per-member unit price: the minimum
// club override across the member's clubs, or the base price when none
// matches. Deterministic regardless of club iteration order.
func ResolveUnitPrice(product *models.Product, memberClubCodes []string) int {
	memberOf := make(map[string]struct{}, len(memberClubCodes))
	for _, code := range memberClubCodes {
		memberOf[catalog.NormalizeClubCode(code)] = struct{}{}
	}

	price := product.BasePriceCents
	matched := false
	for _, override := range product.PriceOverrides {
		if _, ok := memberOf[catalog.NormalizeClubCode(override.ClubCode)]; !ok {
			continue
		}
		if !matched || override.PriceCents < price {
			price = override.PriceCents
			matched = true
		}
	}
	return price
}

// lineTax rounds lineSubtotal * ratePercent / 100 half-up to the nearest cent.
func lineTax(lineSubtotalCents int, ratePercent decimal.Decimal) int {
	tax := decimal.NewFromInt(int64(lineSubtotalCents)).
		Mul(ratePercent).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return int(tax.IntPart())
}

func checkPreorderWindow(product *models.Product, now time.Time) error {
	if !product.IsPreorder {
		return nil
	}
	open := product.PreorderStart == nil || !now.Before(*product.PreorderStart)
	if open && product.PreorderEnd != nil && now.After(*product.PreorderEnd) {
		open = false
	}
	if open {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodePreorderWindowClosed, "preorder window is closed").
		WithDetails(map[string]any{
			"product_id":    product.ID,
			"product_title": product.Title,
		})
}
