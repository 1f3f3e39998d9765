package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

// Allocation is the immutable audit row for a bulk grant. It is never
// mutated after creation, only listed.
type Allocation struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID                  `gorm:"column:product_id;type:uuid;not null;index"`
	TargetType        enums.AllocationTargetType `gorm:"column:target_type;not null"`
	ClubCode          *string                    `gorm:"column:club_code"`
	MemberIDs         pq.StringArray             `gorm:"column:member_ids;type:text[]"`
	QuantityPerPerson int                        `gorm:"column:quantity_per_person;not null"`
	TotalQuantity     int                        `gorm:"column:total_quantity;not null"`
	PullFromInventory bool                       `gorm:"column:pull_from_inventory;not null;default:false"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (a *Allocation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
