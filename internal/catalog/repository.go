package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
)

// Repository is the read side over products, clubs, members, and tax rates,
// plus the two conditional counter updates on the product row.
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

// FindProduct loads a product with its club price overrides.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("PriceOverrides").
		First(&product, "id = ?", id).
		Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindClub resolves a club by its uppercase code.
func (r *Repository) FindClub(ctx context.Context, code string) (*models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).First(&club, "code = ?", NormalizeClubCode(code)).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

// ListClubs returns every club ordered by code.
func (r *Repository) ListClubs(ctx context.Context) ([]models.Club, error) {
	var clubs []models.Club
	err := r.db.WithContext(ctx).Order("code ASC").Find(&clubs).Error
	return clubs, err
}

// ClubCodes returns the current set of valid club codes.
func (r *Repository) ClubCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Order("code ASC").
		Pluck("code", &codes).
		Error
	return codes, err
}

// ClubMemberIDs returns the user ids of every current member of the club.
func (r *Repository) ClubMemberIDs(ctx context.Context, code string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ClubMembership{}).
		Where("club_code = ?", NormalizeClubCode(code)).
		Order("created_at ASC").
		Pluck("user_id", &ids).
		Error
	return ids, err
}

// MemberClubCodes returns the club codes the user currently belongs to.
func (r *Repository) MemberClubCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.ClubMembership{}).
		Where("user_id = ?", userID).
		Pluck("club_code", &codes).
		Error
	return codes, err
}

// MissingMembers returns the subset of ids with no matching user row.
func (r *Repository) MissingMembers(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", ids).
		Pluck("id", &found).
		Error; err != nil {
		return nil, err
	}

	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// FindUser loads a member account.
func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindTaxRate loads a tax rate row.
func (r *Repository) FindTaxRate(ctx context.Context, id uuid.UUID) (*models.TaxRate, error) {
	var rate models.TaxRate
	if err := r.db.WithContext(ctx).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

// FindMembershipOffering loads an active membership offering.
func (r *Repository) FindMembershipOffering(ctx context.Context, id uuid.UUID) (*models.MembershipOffering, error) {
	var offering models.MembershipOffering
	if err := r.db.WithContext(ctx).
		First(&offering, "id = ? AND is_active = ?", id, true).
		Error; err != nil {
		return nil, err
	}
	return &offering, nil
}

// DecrementInventory subtracts qty from the product's stock only when enough
// remains. The check and subtract are one conditional UPDATE so two concurrent
// callers can never both succeed against the same remaining stock.
func (r *Repository) DecrementInventory(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND inventory_qty >= ?", productID, qty).
		UpdateColumn("inventory_qty", gorm.Expr("inventory_qty - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// NormalizeClubCode uppercases and trims a club code for case-insensitive matching.
func NormalizeClubCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
