package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRecordIssuedAccumulates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	product := &models.Product{Title: "Dark Syrup", BasePriceCents: 2000}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := repo.RecordIssued(ctx, product.ID, 6); err != nil {
		t.Fatalf("record issued: %v", err)
	}
	if err := repo.RecordIssued(ctx, product.ID, 2); err != nil {
		t.Fatalf("record issued again: %v", err)
	}

	count, err := repo.OutstandingCount(ctx, product.ID)
	if err != nil {
		t.Fatalf("outstanding count: %v", err)
	}
	if count != 8 {
		t.Fatalf("unexpected counter %d", count)
	}
}

func TestRecordIssuedRejectsBadInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	if err := repo.RecordIssued(ctx, uuid.New(), 0); err == nil {
		t.Fatal("expected validation error for zero quantity")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.RecordIssued(ctx, uuid.New(), 3); err == nil {
		t.Fatal("expected not found for unknown product")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
