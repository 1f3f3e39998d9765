package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tapline/sugarhouse-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Club{},
		&models.ClubMembership{},
		&models.Product{},
		&models.ClubPriceOverride{},
		&models.TaxRate{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		DisplayName: name,
		Email:       fmt.Sprintf("sgh_test_%s@example.com", uuid.NewString()),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateClub(t *testing.T, db *gorm.DB, code string, memberIDs ...uuid.UUID) {
	t.Helper()
	if err := db.Create(&models.Club{Code: code, Name: code + " Club"}).Error; err != nil {
		t.Fatalf("create club: %v", err)
	}
	for _, id := range memberIDs {
		if err := db.Create(&models.ClubMembership{ClubCode: code, UserID: id}).Error; err != nil {
			t.Fatalf("create membership: %v", err)
		}
	}
}

func TestClubLookupNormalizesCode(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	member := mustCreateUser(t, db, "Maple Member")
	mustCreateClub(t, db, "WOOD", member.ID)

	club, err := repo.FindClub(ctx, "  wood ")
	if err != nil {
		t.Fatalf("find club: %v", err)
	}
	if club.Code != "WOOD" {
		t.Fatalf("unexpected club code %q", club.Code)
	}

	ids, err := repo.ClubMemberIDs(ctx, "wood")
	if err != nil {
		t.Fatalf("club members: %v", err)
	}
	if len(ids) != 1 || ids[0] != member.ID {
		t.Fatalf("unexpected member ids %v", ids)
	}
}

func TestMissingMembers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	known := mustCreateUser(t, db, "Known")
	unknown := uuid.New()

	missing, err := repo.MissingMembers(ctx, []uuid.UUID{known.ID, unknown})
	if err != nil {
		t.Fatalf("missing members: %v", err)
	}
	if len(missing) != 1 || missing[0] != unknown {
		t.Fatalf("unexpected missing set %v", missing)
	}

	missing, err = repo.MissingMembers(ctx, nil)
	if err != nil {
		t.Fatalf("missing members empty: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no missing ids, got %v", missing)
	}
}

func TestDecrementInventory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	product := &models.Product{Title: "Amber Syrup", BasePriceCents: 3400, InventoryQty: 5}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	ok, err := repo.DecrementInventory(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to succeed")
	}

	ok, err = repo.DecrementInventory(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("second decrement: %v", err)
	}
	if ok {
		t.Fatal("expected decrement beyond stock to fail")
	}

	var loaded models.Product
	if err := db.First(&loaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if loaded.InventoryQty != 2 {
		t.Fatalf("unexpected inventory %d", loaded.InventoryQty)
	}
}

func TestMemberClubCodes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	member := mustCreateUser(t, db, "Two Clubs")
	mustCreateClub(t, db, "WOOD", member.ID)
	mustCreateClub(t, db, "SAP", member.ID)

	codes, err := repo.MemberClubCodes(ctx, member.ID)
	if err != nil {
		t.Fatalf("member club codes: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("unexpected codes %v", codes)
	}
}
