package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

// Service exposes the entitlement state machine.
type Service interface {
	PromotePreorders(ctx context.Context) (int64, error)
	MarkPickedUp(ctx context.Context, id uuid.UUID) (*EntitlementDTO, error)
	MarkNotPickedUp(ctx context.Context, id uuid.UUID) (*EntitlementDTO, error)
	ForMember(ctx context.Context, userID uuid.UUID) (*MemberEntitlements, error)
	FulfillmentView(ctx context.Context) ([]FulfillmentRow, error)
}

// EntitlementDTO is the public shape of an entitlement row.
type EntitlementDTO struct {
	ID         uuid.UUID               `json:"id"`
	UserID     uuid.UUID               `json:"user_id"`
	ProductID  uuid.UUID               `json:"product_id"`
	Quantity   int                     `json:"quantity"`
	Status     enums.EntitlementStatus `json:"status"`
	Source     enums.EntitlementSource `json:"source"`
	ReleaseAt  *time.Time              `json:"release_at,omitempty"`
	PickedUpAt *time.Time              `json:"picked_up_at,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// MemberEntitlements splits a member's rows into collectible now and upcoming.
type MemberEntitlements struct {
	ReadyForPickup []EntitlementDTO `json:"ready_for_pickup"`
	Upcoming       []EntitlementDTO `json:"upcoming"`
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs an entitlement service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entitlement repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// PromotePreorders releases every due preorder entitlement. Idempotent; safe
// to run concurrently with itself and with pickup toggles.
func (s *service) PromotePreorders(ctx context.Context) (int64, error) {
	promoted, err := s.repo.PromoteDue(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote preorder entitlements")
	}
	return promoted, nil
}

// MarkPickedUp transitions READY_FOR_PICKUP -> PICKED_UP. Concurrent calls on
// the same row yield exactly one success.
func (s *service) MarkPickedUp(ctx context.Context, id uuid.UUID) (*EntitlementDTO, error) {
	now := s.now().UTC()
	return s.transition(ctx, id, enums.EntitlementStatusReadyForPickup, enums.EntitlementStatusPickedUp, &now)
}

// MarkNotPickedUp undoes a pickup, transitioning PICKED_UP -> READY_FOR_PICKUP.
func (s *service) MarkNotPickedUp(ctx context.Context, id uuid.UUID) (*EntitlementDTO, error) {
	return s.transition(ctx, id, enums.EntitlementStatusPickedUp, enums.EntitlementStatusReadyForPickup, nil)
}

func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	from, to enums.EntitlementStatus,
	pickedUpAt *time.Time,
) (*EntitlementDTO, error) {
	changed, err := s.repo.TransitionStatus(ctx, id, from, to, pickedUpAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition entitlement status")
	}

	if changed == 0 {
		// Distinguish a missing row from a row in the wrong state.
		row, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entitlement not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "entitlement is not in the required state").
			WithDetails(map[string]any{
				"current_status":  row.Status,
				"required_status": from,
			})
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	return newDTO(row), nil
}

// ForMember returns the member's entitlements split into ready and upcoming.
// Callers are expected to run the promotion sweep first so the split reflects
// the current time.
func (s *service) ForMember(ctx context.Context, userID uuid.UUID) (*MemberEntitlements, error) {
	rows, err := s.repo.ListByUserAndStatuses(ctx, userID,
		enums.EntitlementStatusReadyForPickup,
		enums.EntitlementStatusNotReady,
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member entitlements")
	}

	result := &MemberEntitlements{
		ReadyForPickup: []EntitlementDTO{},
		Upcoming:       []EntitlementDTO{},
	}
	for i := range rows {
		dto := *newDTO(&rows[i])
		switch rows[i].Status {
		case enums.EntitlementStatusReadyForPickup:
			result.ReadyForPickup = append(result.ReadyForPickup, dto)
		case enums.EntitlementStatusNotReady:
			result.Upcoming = append(result.Upcoming, dto)
		}
	}
	return result, nil
}

// FulfillmentView lists collectible and collected entitlements across all
// members for the staff pickup screen.
func (s *service) FulfillmentView(ctx context.Context) ([]FulfillmentRow, error) {
	rows, err := s.repo.ListForFulfillment(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment view")
	}
	if rows == nil {
		rows = []FulfillmentRow{}
	}
	return rows, nil
}

func newDTO(row *models.Entitlement) *EntitlementDTO {
	return &EntitlementDTO{
		ID:         row.ID,
		UserID:     row.UserID,
		ProductID:  row.ProductID,
		Quantity:   row.Quantity,
		Status:     row.Status,
		Source:     row.Source,
		ReleaseAt:  row.ReleaseAt,
		PickedUpAt: row.PickedUpAt,
		CreatedAt:  row.CreatedAt,
	}
}
