package components

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:components_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Component{}, &models.Usage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedComponent(t *testing.T, db *gorm.DB, inStock, inUse int) *models.Component {
	t.Helper()
	component := &models.Component{
		ID:       uuid.New(),
		Category: "robotics",
		Name:     "stepper motor",
		InStock:  inStock,
		InUse:    inUse,
	}
	if err := db.Create(component).Error; err != nil {
		t.Fatalf("seed component: %v", err)
	}
	return component
}

func reserveFor(component *models.Component, requestID uuid.UUID, qty int) ReserveInput {
	return ReserveInput{
		ComponentID: component.ID,
		RequestID:   requestID,
		Quantity:    qty,
		HolderName:  "Jordan",
		HolderEmail: "jordan@example.edu",
		HolderPhone: "555-0100",
	}
}

func TestReserveHoldsStockAndWritesUsage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	if err := Reserve(ctx, db, reserveFor(component, requestID, 3)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 3 || reloaded.InStock != 5 {
		t.Fatalf("unexpected counters: %+v", reloaded)
	}

	var usage models.Usage
	if err := db.First(&usage, "request_id = ?", requestID).Error; err != nil {
		t.Fatalf("load usage: %v", err)
	}
	if usage.Quantity != 3 || usage.HolderName != "Jordan" || usage.Project != nil {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}

func TestReserveIsIdempotentPerRequest(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	input := reserveFor(component, requestID, 3)
	if err := Reserve(ctx, db, input); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := Reserve(ctx, db, input); err != nil {
		t.Fatalf("second reserve: %v", err)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 3 {
		t.Fatalf("expected in_use=3 after replay, got %d", reloaded.InUse)
	}
}

func TestReserveInsufficientStockReportsAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 3, 2)

	err := Reserve(ctx, db, reserveFor(component, uuid.New(), 2))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["available"] != 1 {
		t.Fatalf("expected available=1 in details, got %v", typed.Details())
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 2 {
		t.Fatalf("counters must be unchanged, got %+v", reloaded)
	}
}

func TestReserveUnknownComponent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := Reserve(context.Background(), db, ReserveInput{
		ComponentID: uuid.New(),
		RequestID:   uuid.New(),
		Quantity:    1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Two approvers racing on the same component: the availability check and the
// increment are one conditional UPDATE, so whichever reserve lands second sees
// the updated counter and is rejected regardless of interleaving.
func TestCompetingReservesNeverOversubscribe(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	results := []error{
		Reserve(ctx, db, reserveFor(component, uuid.New(), 3)),
		Reserve(ctx, db, reserveFor(component, uuid.New(), 3)),
	}

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeInsufficientStock:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", succeeded, rejected)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 3 {
		t.Fatalf("expected in_use=3, got %d", reloaded.InUse)
	}
}

// A second transaction can slip its usage insert between our existence check
// and our own insert; the unique index on request_id then rejects ours. That
// must surface as a state conflict, not as a store failure.
func TestRacingDuplicateReserveMapsToStateConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	if err := Reserve(ctx, db, reserveFor(component, requestID, 2)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	duplicate := models.Usage{
		ID:          uuid.New(),
		ComponentID: component.ID,
		RequestID:   requestID,
		HolderName:  "Jordan",
		HolderEmail: "jordan@example.edu",
		Quantity:    2,
	}
	insertErr := db.WithContext(ctx).Create(&duplicate).Error
	if insertErr == nil {
		t.Fatal("expected unique violation on duplicate request_id")
	}

	err := classifyAttributionInsertError(insertErr)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReleaseRestoresStockAndRemovesUsage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	if err := Reserve(ctx, db, reserveFor(component, requestID, 3)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Release(ctx, db, requestID); err != nil {
		t.Fatalf("release: %v", err)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 0 || reloaded.InStock != 5 {
		t.Fatalf("expected counters restored, got %+v", reloaded)
	}

	var count int64
	if err := db.Model(&models.Usage{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
		t.Fatalf("count usages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected usage removed, found %d", count)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	if err := Reserve(ctx, db, reserveFor(component, requestID, 2)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Release(ctx, db, requestID); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := Release(ctx, db, requestID); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 0 {
		t.Fatalf("expected in_use=0 after replay, got %d", reloaded.InUse)
	}
}

func TestReleaseSurfacesCorruptCounters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	// usage row claims more units than the component counter carries
	usage := models.Usage{
		ID:          uuid.New(),
		ComponentID: component.ID,
		RequestID:   requestID,
		HolderName:  "Jordan",
		HolderEmail: "jordan@example.edu",
		Quantity:    4,
	}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	err := Release(ctx, db, requestID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInconsistent {
		t.Fatalf("expected inconsistent state, got %v", err)
	}
}

func TestAttributeToProjectRelabelsWithoutCounterChange(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	requestID := uuid.New()

	if err := Reserve(ctx, db, reserveFor(component, requestID, 2)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := AttributeToProject(ctx, db, requestID, "LineFollower"); err != nil {
		t.Fatalf("attribute: %v", err)
	}

	var reloaded models.Component
	if err := db.First(&reloaded, "id = ?", component.ID).Error; err != nil {
		t.Fatalf("reload component: %v", err)
	}
	if reloaded.InUse != 2 {
		t.Fatalf("in_use must stay at 2, got %d", reloaded.InUse)
	}

	var usage models.Usage
	if err := db.First(&usage, "request_id = ?", requestID).Error; err != nil {
		t.Fatalf("load usage: %v", err)
	}
	if usage.Project == nil || *usage.Project != "LineFollower" {
		t.Fatalf("expected project attribution, got %+v", usage)
	}
}

func TestAttributeToProjectWithoutUsage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := AttributeToProject(context.Background(), db, uuid.New(), "LineFollower")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInconsistent {
		t.Fatalf("expected inconsistent state, got %v", err)
	}
}
