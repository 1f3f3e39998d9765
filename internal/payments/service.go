package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/internal/catalog"
	"github.com/tapline/sugarhouse-backend/internal/entitlements"
	"github.com/tapline/sugarhouse-backend/internal/ledger"
	"github.com/tapline/sugarhouse-backend/pkg/db"
	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

const processedEventTTL = 7 * 24 * time.Hour

// PurchasedItem is one paid cart line from the payment collaborator.
type PurchasedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// PaymentSucceededEvent is the success event consumed from the payments topic.
type PaymentSucceededEvent struct {
	EventID  string          `json:"event_id"`
	MemberID uuid.UUID       `json:"member_id"`
	Items    []PurchasedItem `json:"items"`
}

// Service turns successful payments into entitlements.
type Service interface {
	HandlePaymentSucceeded(ctx context.Context, event PaymentSucceededEvent) error
}

// eventGuard deduplicates at-least-once event delivery.
type eventGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ProcessedEventKey(source, eventID string) string
}

type service struct {
	catalogRepo *catalog.Repository
	entitleRepo *entitlements.Repository
	ledgerRepo  *ledger.Repository
	dbClient    *db.Client
	guard       eventGuard
	logg        *logger.Logger
}

// NewService constructs a payment-event service instance. The guard is
// optional; without it every delivery is processed.
func NewService(
	catalogRepo *catalog.Repository,
	entitleRepo *entitlements.Repository,
	ledgerRepo *ledger.Repository,
	dbClient *db.Client,
	guard eventGuard,
	logg *logger.Logger,
) (Service, error) {
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
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalogRepo: catalogRepo,
		entitleRepo: entitleRepo,
		ledgerRepo:  ledgerRepo,
		dbClient:    dbClient,
		guard:       guard,
		logg:        logg,
	}, nil
}

// HandlePaymentSucceeded creates one entitlement per purchased line and bumps
// the fulfillment ledger. Lines whose product no longer exists are skipped,
// not failed. Inventory is untouched on this path: only bulk allocation pulls
// stock.
func (s *service) HandlePaymentSucceeded(ctx context.Context, event PaymentSucceededEvent) error {
	ctx = s.logg.WithUserID(ctx, event.MemberID.String())

	var claimKey string
	if s.guard != nil && event.EventID != "" {
		claimKey = s.guard.ProcessedEventKey("payments", event.EventID)
		fresh, err := s.guard.SetNX(ctx, claimKey, "1", processedEventTTL)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check processed event")
		}
		if !fresh {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.EventID), "payment event already processed, skipping")
			return nil
		}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txCatalog := s.catalogRepo.WithTx(tx)
		txEntitle := s.entitleRepo.WithTx(tx)
		txLedger := s.ledgerRepo.WithTx(tx)

		for _, item := range event.Items {
			if item.Quantity <= 0 {
				continue
			}

			product, err := txCatalog.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.logg.Warn(
						s.logg.WithProductID(ctx, item.ProductID.String()),
						"purchased product no longer exists, skipping line",
					)
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
			}

			row := models.Entitlement{
				UserID:    event.MemberID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Status:    enums.EntitlementStatusReadyForPickup,
				Source:    enums.EntitlementSourceOrder,
			}
			if product.IsPreorder && product.ReleaseAt != nil {
				row.Status = enums.EntitlementStatusNotReady
				row.Source = enums.EntitlementSourcePreorder
				row.ReleaseAt = product.ReleaseAt
			}
			if err := txEntitle.CreateBatch(ctx, []models.Entitlement{row}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert entitlement")
			}

			if err := txLedger.RecordIssued(ctx, product.ID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		// The marker is only a claim until the transaction commits. Release
		// it so a redelivery retries instead of being skipped.
		s.releaseClaim(ctx, claimKey)
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "handle payment succeeded")
	}

	return nil
}

func (s *service) releaseClaim(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.guard.Del(ctx, key); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "key", key), "failed to release processed-event claim", err)
	}
}
