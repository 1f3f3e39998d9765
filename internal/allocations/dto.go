package allocations

import (
	"time"

	"github.com/google/uuid"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

// AllocationDTO is the public shape of an allocation audit row.
type AllocationDTO struct {
	ID                uuid.UUID                  `json:"id"`
	ProductID         uuid.UUID                  `json:"product_id"`
	TargetType        enums.AllocationTargetType `json:"target_type"`
	ClubCode          *string                    `json:"club_code,omitempty"`
	MemberIDs         []string                   `json:"member_ids,omitempty"`
	QuantityPerPerson int                        `json:"quantity_per_person"`
	TotalQuantity     int                        `json:"total_quantity"`
	PullFromInventory bool                       `json:"pull_from_inventory"`
	CreatedAt         time.Time                  `json:"created_at"`
}

func newDTO(row *models.Allocation) *AllocationDTO {
	return &AllocationDTO{
		ID:                row.ID,
		ProductID:         row.ProductID,
		TargetType:        row.TargetType,
		ClubCode:          row.ClubCode,
		MemberIDs:         []string(row.MemberIDs),
		QuantityPerPerson: row.QuantityPerPerson,
		TotalQuantity:     row.TotalQuantity,
		PullFromInventory: row.PullFromInventory,
		CreatedAt:         row.CreatedAt,
	}
}
