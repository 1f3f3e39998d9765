package entitlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

// Repository owns entitlement persistence, including the conditional updates
// the state machine depends on.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateBatch inserts the rows in one statement.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Entitlement) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByID loads a single entitlement.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Entitlement, error) {
	var row models.Entitlement
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// PromoteDue flips every NOT_READY row whose release time has passed to
// READY_FOR_PICKUP. One bulk conditional UPDATE, so concurrent sweeps cannot
// double-apply and a racing pickup toggle can never match the same row.
func (r *Repository) PromoteDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("status = ? AND release_at IS NOT NULL AND release_at <= ?", enums.EntitlementStatusNotReady, now).
		Updates(map[string]any{"status": enums.EntitlementStatusReadyForPickup})
	return res.RowsAffected, res.Error
}

// TransitionStatus performs a compare-and-swap on the status column. It
// reports how many rows changed; zero means the row is missing or not in the
// expected state.
func (r *Repository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to enums.EntitlementStatus,
	pickedUpAt *time.Time,
) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Entitlement{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":       to,
			"picked_up_at": pickedUpAt,
		})
	return res.RowsAffected, res.Error
}

// ListByUserAndStatuses returns the user's entitlements in the given states,
// oldest first.
func (r *Repository) ListByUserAndStatuses(
	ctx context.Context,
	userID uuid.UUID,
	statuses ...enums.EntitlementStatus,
) ([]models.Entitlement, error) {
	var rows []models.Entitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// FulfillmentRow is the staff-facing pickup tracking projection.
type FulfillmentRow struct {
	EntitlementID uuid.UUID               `json:"entitlement_id"`
	UserID        uuid.UUID               `json:"user_id"`
	MemberName    string                  `json:"member_name"`
	ProductID     uuid.UUID               `json:"product_id"`
	ProductTitle  string                  `json:"product_title"`
	Quantity      int                     `json:"quantity"`
	Status        enums.EntitlementStatus `json:"status"`
	PickedUpAt    *time.Time              `json:"picked_up_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// ListForFulfillment joins collectible and collected entitlements across all
// members with display and product names.
func (r *Repository) ListForFulfillment(ctx context.Context) ([]FulfillmentRow, error) {
	var rows []FulfillmentRow
	err := r.db.WithContext(ctx).
		Table("entitlements e").
		Select(
			"e.id AS entitlement_id, e.user_id, u.display_name AS member_name, " +
				"e.product_id, p.title AS product_title, e.quantity, e.status, " +
				"e.picked_up_at, e.created_at",
		).
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN products p ON p.id = e.product_id").
		Where("e.status IN ?", []enums.EntitlementStatus{
			enums.EntitlementStatusReadyForPickup,
			enums.EntitlementStatusPickedUp,
		}).
		Order("e.created_at ASC").
		Scan(&rows).
		Error
	return rows, err
}
