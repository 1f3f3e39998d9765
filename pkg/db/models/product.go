package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

// Product is a member-only listing. InventoryQty is the authoritative stock;
// OrderedNotPickedUp is the cumulative-issued fulfillment counter.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Title            string              `gorm:"column:title;not null"`
	BasePriceCents   int                 `gorm:"column:base_price_cents;not null"`
	Currency         enums.Currency      `gorm:"column:currency;not null;default:USD"`
	AllowedClubCodes pq.StringArray      `gorm:"column:allowed_club_codes;type:text[]"`
	PriceOverrides   []ClubPriceOverride `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	IsPreorder       bool                `gorm:"column:is_preorder;not null;default:false"`
	PreorderStart    *time.Time          `gorm:"column:preorder_start"`
	PreorderEnd      *time.Time          `gorm:"column:preorder_end"`
	// ReleaseAt may differ from PreorderEnd; it controls when preorder
	// entitlements become collectible.
	ReleaseAt          *time.Time `gorm:"column:release_at"`
	InventoryQty       int        `gorm:"column:inventory_qty;not null;default:0"`
	OrderedNotPickedUp int        `gorm:"column:ordered_not_picked_up;not null;default:0"`
	TaxRateID          *uuid.UUID `gorm:"column:tax_rate_id;type:uuid"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
