package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

// Entitlement records that a specific member is owed a quantity of a specific
// product from a specific origin. Rows are never deleted, only transitioned.
type Entitlement struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	Status    enums.EntitlementStatus `gorm:"column:status;not null;index"`
	Source    enums.EntitlementSource `gorm:"column:source;not null"`
	// ReleaseAt is only meaningful while the row is NOT_READY.
	ReleaseAt  *time.Time `gorm:"column:release_at"`
	PickedUpAt *time.Time `gorm:"column:picked_up_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Entitlement) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
