package allocations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/pagination"
)

// Repository persists allocation audit rows.
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

// Create inserts the immutable allocation row.
func (r *Repository) Create(ctx context.Context, allocation *models.Allocation) (*models.Allocation, error) {
	if err := r.db.WithContext(ctx).Create(allocation).Error; err != nil {
		return nil, err
	}
	return allocation, nil
}

// ListByProduct returns the product's allocations newest first with cursor
// pagination.
func (r *Repository) ListByProduct(
	ctx context.Context,
	productID uuid.UUID,
	params pagination.Params,
) ([]models.Allocation, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Where("product_id = ?", productID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Allocation
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
