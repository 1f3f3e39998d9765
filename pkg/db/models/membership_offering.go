package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipOffering is a flat-priced club membership that can be purchased
// alongside a cart. No tax is applied to it.
type MembershipOffering struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ClubCode   string    `gorm:"column:club_code;not null"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *MembershipOffering) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
