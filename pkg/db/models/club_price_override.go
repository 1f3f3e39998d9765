package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClubPriceOverride supersedes a product's base price for members of a club.
// At most one override exists per (product, club) pair.
type ClubPriceOverride struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_override_product_club"`
	ClubCode   string    `gorm:"column:club_code;not null;uniqueIndex:idx_override_product_club"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (o *ClubPriceOverride) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
