package allocations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/internal/catalog"
	"github.com/tapline/sugarhouse-backend/internal/entitlements"
	"github.com/tapline/sugarhouse-backend/internal/ledger"
	"github.com/tapline/sugarhouse-backend/pkg/db"
	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/pagination"
)

// Service exposes bulk allocation operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*AllocationDTO, error)
	List(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// CreateInput holds the validated payload for a bulk grant.
type CreateInput struct {
	ProductID         uuid.UUID
	QuantityPerPerson int
	TargetType        enums.AllocationTargetType
	ClubCode          string
	MemberIDs         []uuid.UUID
	PullFromInventory bool
}

// ListResult pairs a page of allocations with its next cursor.
type ListResult struct {
	Allocations []AllocationDTO `json:"allocations"`
	NextCursor  string          `json:"next_cursor,omitempty"`
}

type service struct {
	repo        *Repository
	catalogRepo *catalog.Repository
	entitleRepo *entitlements.Repository
	ledgerRepo  *ledger.Repository
	dbClient    *db.Client
}

// NewService constructs an allocation service instance.
func NewService(
	repo *Repository,
	catalogRepo *catalog.Repository,
	entitleRepo *entitlements.Repository,
	ledgerRepo *ledger.Repository,
	dbClient *db.Client,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if entitleRepo == nil {
		return nil, fmt.Errorf("entitlement repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:        repo,
		catalogRepo: catalogRepo,
		entitleRepo: entitleRepo,
		ledgerRepo:  ledgerRepo,
		dbClient:    dbClient,
	}, nil
}

// Create validates the grant, then commits inventory decrement, entitlement
// batch, ledger increment, and the audit row in one transaction. Any rejection
// leaves no partial state.
func (s *service) Create(ctx context.Context, input CreateInput) (*AllocationDTO, error) {
	if input.QuantityPerPerson < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_per_person must be a positive integer")
	}
	if !input.TargetType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_type must be club or members")
	}

	memberIDs, clubCode, err := s.resolveTarget(ctx, input)
	if err != nil {
		return nil, err
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	totalQuantity := input.QuantityPerPerson * len(memberIDs)

	status := enums.EntitlementStatusReadyForPickup
	var releaseAt *time.Time
	if product.IsPreorder && product.ReleaseAt != nil {
		status = enums.EntitlementStatusNotReady
		releaseAt = product.ReleaseAt
	}

	allocation := &models.Allocation{
		ProductID:         product.ID,
		TargetType:        input.TargetType,
		ClubCode:          clubCode,
		QuantityPerPerson: input.QuantityPerPerson,
		TotalQuantity:     totalQuantity,
		PullFromInventory: input.PullFromInventory,
	}
	if input.TargetType == enums.AllocationTargetMembers {
		ids := make(pq.StringArray, 0, len(memberIDs))
		for _, id := range memberIDs {
			ids = append(ids, id.String())
		}
		allocation.MemberIDs = ids
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txCatalog := s.catalogRepo.WithTx(tx)
		txEntitle := s.entitleRepo.WithTx(tx)
		txLedger := s.ledgerRepo.WithTx(tx)
		txRepo := s.repo.WithTx(tx)

		if input.PullFromInventory {
			ok, err := txCatalog.DecrementInventory(ctx, product.ID, totalQuantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement inventory")
			}
			if !ok {
				current, err := txCatalog.FindProduct(ctx, product.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product stock")
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "not enough inventory for allocation").
					WithDetails(map[string]any{
						"required":  totalQuantity,
						"available": current.InventoryQty,
					})
			}
		}

		rows := make([]models.Entitlement, 0, len(memberIDs))
		for _, memberID := range memberIDs {
			rows = append(rows, models.Entitlement{
				UserID:    memberID,
				ProductID: product.ID,
				Quantity:  input.QuantityPerPerson,
				Status:    status,
				Source:    enums.EntitlementSourceAllocation,
				ReleaseAt: releaseAt,
			})
		}
		if err := txEntitle.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert entitlements")
		}

		if err := txLedger.RecordIssued(ctx, product.ID, totalQuantity); err != nil {
			return err
		}

		if _, err := txRepo.Create(ctx, allocation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert allocation")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create allocation")
	}

	return newDTO(allocation), nil
}

// List returns the product's allocations newest first.
func (s *service) List(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	rows, nextCursor, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list allocations")
	}

	out := make([]AllocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newDTO(&rows[i]))
	}
	return &ListResult{Allocations: out, NextCursor: nextCursor}, nil
}

// resolveTarget expands the grant target into a concrete member set.
func (s *service) resolveTarget(ctx context.Context, input CreateInput) ([]uuid.UUID, *string, error) {
	switch input.TargetType {
	case enums.AllocationTargetClub:
		code := catalog.NormalizeClubCode(input.ClubCode)
		if code == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "club_code is required for club targets")
		}

		club, err := s.catalogRepo.FindClub(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				codes, listErr := s.catalogRepo.ClubCodes(ctx)
				if listErr != nil {
					return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, listErr, "list club codes")
				}
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown club %q", code)).
					WithDetails(map[string]any{"valid_clubs": codes})
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load club")
		}

		memberIDs, err := s.catalogRepo.ClubMemberIDs(ctx, club.Code)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list club members")
		}
		if len(memberIDs) == 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("club %q has no members", club.Code))
		}
		return memberIDs, &club.Code, nil

	case enums.AllocationTargetMembers:
		if len(input.MemberIDs) == 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "member_ids must be non-empty for member targets")
		}
		missing, err := s.catalogRepo.MissingMembers(ctx, input.MemberIDs)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check members")
		}
		if len(missing) > 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown member ids").
				WithDetails(map[string]any{"missing_member_ids": missing})
		}
		return input.MemberIDs, nil, nil

	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "target_type must be club or members")
	}
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.catalogRepo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
