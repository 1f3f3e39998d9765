package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

// Repository maintains the per-product ordered_not_picked_up counter.
//
// The counter is cumulative-issued: it grows whenever entitlements are created
// and is never reduced on pickup, so over time it reads as "ever ordered"
// rather than "currently outstanding". Staff dashboards consume it with that
// caveat; changing it to a live counter is a product decision, not a bug fix.
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

// RecordIssued adds qty to the product's counter with a single atomic UPDATE.
func (r *Repository) RecordIssued(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ledger quantity must be positive")
	}

	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("ordered_not_picked_up", gorm.Expr("ordered_not_picked_up + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	return nil
}

// OutstandingCount reads the current counter value for a product.
func (r *Repository) OutstandingCount(ctx context.Context, productID uuid.UUID) (int, error) {
	var count int
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("ordered_not_picked_up", &count).
		Error
	return count, err
}
