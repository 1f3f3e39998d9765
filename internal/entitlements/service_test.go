package entitlements

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:entitlements_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Entitlement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustSeedEntitlement(t *testing.T, db *gorm.DB, status enums.EntitlementStatus, releaseAt *time.Time) *models.Entitlement {
	t.Helper()
	user := &models.User{
		DisplayName: "Pickup Tester",
		Email:       fmt.Sprintf("sgh_test_%s@example.com", uuid.NewString()),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	product := &models.Product{Title: "Golden Syrup", BasePriceCents: 2500}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	row := &models.Entitlement{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  2,
		Status:    status,
		Source:    enums.EntitlementSourceAllocation,
		ReleaseAt: releaseAt,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create entitlement: %v", err)
	}
	return row
}

func TestMarkPickedUpDoubleCall(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	row := mustSeedEntitlement(t, db, enums.EntitlementStatusReadyForPickup, nil)

	dto, err := svc.MarkPickedUp(ctx, row.ID)
	if err != nil {
		t.Fatalf("first pickup: %v", err)
	}
	if dto.Status != enums.EntitlementStatusPickedUp || dto.PickedUpAt == nil {
		t.Fatalf("unexpected state after pickup: %+v", dto)
	}

	_, err = svc.MarkPickedUp(ctx, row.ID)
	if err == nil {
		t.Fatal("expected second pickup to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPickupUndoRedoRefreshesTimestamp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	row := mustSeedEntitlement(t, db, enums.EntitlementStatusReadyForPickup, nil)

	first, err := svc.MarkPickedUp(ctx, row.ID)
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}

	undone, err := svc.MarkNotPickedUp(ctx, row.ID)
	if err != nil {
		t.Fatalf("undo pickup: %v", err)
	}
	if undone.Status != enums.EntitlementStatusReadyForPickup || undone.PickedUpAt != nil {
		t.Fatalf("unexpected state after undo: %+v", undone)
	}

	time.Sleep(5 * time.Millisecond)

	second, err := svc.MarkPickedUp(ctx, row.ID)
	if err != nil {
		t.Fatalf("second pickup: %v", err)
	}
	if second.PickedUpAt == nil || !second.PickedUpAt.After(*first.PickedUpAt) {
		t.Fatalf("expected a fresh pickup timestamp, first=%v second=%v", first.PickedUpAt, second.PickedUpAt)
	}
}

func TestMarkPickedUpNotReady(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	release := time.Now().Add(24 * time.Hour)
	row := mustSeedEntitlement(t, db, enums.EntitlementStatusNotReady, &release)

	_, err := svc.MarkPickedUp(ctx, row.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkPickedUpUnknownID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	_, err := svc.MarkPickedUp(ctx, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPromotePreordersIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	due := mustSeedEntitlement(t, db, enums.EntitlementStatusNotReady, &past)
	pending := mustSeedEntitlement(t, db, enums.EntitlementStatusNotReady, &future)

	promoted, err := svc.PromotePreorders(ctx)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted != 1 {
		t.Fatalf("expected 1 promotion, got %d", promoted)
	}

	promoted, err = svc.PromotePreorders(ctx)
	if err != nil {
		t.Fatalf("second promote: %v", err)
	}
	if promoted != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %d", promoted)
	}

	var loaded models.Entitlement
	if err := db.First(&loaded, "id = ?", due.ID).Error; err != nil {
		t.Fatalf("load promoted: %v", err)
	}
	if loaded.Status != enums.EntitlementStatusReadyForPickup {
		t.Fatalf("expected promoted row to be ready, got %s", loaded.Status)
	}
	var pendingLoaded models.Entitlement
	if err := db.First(&pendingLoaded, "id = ?", pending.ID).Error; err != nil {
		t.Fatalf("load pending: %v", err)
	}
	if pendingLoaded.Status != enums.EntitlementStatusNotReady {
		t.Fatalf("expected future row to stay not ready, got %s", pendingLoaded.Status)
	}
}

func TestForMemberSplitsByStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	user := &models.User{
		DisplayName: "Split Member",
		Email:       fmt.Sprintf("sgh_test_%s@example.com", uuid.NewString()),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	product := &models.Product{Title: "Candy", BasePriceCents: 900}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	future := time.Now().Add(time.Hour)
	rows := []models.Entitlement{
		{UserID: user.ID, ProductID: product.ID, Quantity: 1, Status: enums.EntitlementStatusReadyForPickup, Source: enums.EntitlementSourceAllocation},
		{UserID: user.ID, ProductID: product.ID, Quantity: 1, Status: enums.EntitlementStatusNotReady, Source: enums.EntitlementSourcePreorder, ReleaseAt: &future},
		{UserID: user.ID, ProductID: product.ID, Quantity: 1, Status: enums.EntitlementStatusPickedUp, Source: enums.EntitlementSourceOrder},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed entitlement: %v", err)
		}
	}

	split, err := svc.ForMember(ctx, user.ID)
	if err != nil {
		t.Fatalf("for member: %v", err)
	}
	if len(split.ReadyForPickup) != 1 || len(split.Upcoming) != 1 {
		t.Fatalf("unexpected split ready=%d upcoming=%d", len(split.ReadyForPickup), len(split.Upcoming))
	}
}

func TestFulfillmentViewJoinsNames(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	row := mustSeedEntitlement(t, db, enums.EntitlementStatusReadyForPickup, nil)

	view, err := svc.FulfillmentView(ctx)
	if err != nil {
		t.Fatalf("fulfillment view: %v", err)
	}
	if len(view) != 1 {
		t.Fatalf("expected 1 row, got %d", len(view))
	}
	got := view[0]
	if got.EntitlementID != row.ID {
		t.Fatalf("unexpected entitlement id %s", got.EntitlementID)
	}
	if got.MemberName != "Pickup Tester" || got.ProductTitle != "Golden Syrup" {
		t.Fatalf("expected joined names, got %+v", got)
	}
}

func TestMarkPickedUpConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	row := mustSeedEntitlement(t, db, enums.EntitlementStatusReadyForPickup, nil)

	const callers = 4
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.MarkPickedUp(ctx, row.ID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("unexpected error: %v", err)
		}
		conflicts++
	}
	if wins != 1 || conflicts != callers-1 {
		t.Fatalf("expected exactly one pickup to win, got wins=%d conflicts=%d", wins, conflicts)
	}

	var loaded models.Entitlement
	if err := db.First(&loaded, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("load entitlement: %v", err)
	}
	if loaded.Status != enums.EntitlementStatusPickedUp || loaded.PickedUpAt == nil {
		t.Fatalf("unexpected state after concurrent pickup: %+v", loaded)
	}
}
