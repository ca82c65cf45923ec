package userinventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:userinventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.UserInventoryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, requesterID string, status enums.RequestStatus, returned bool) *models.UserInventoryRecord {
	t.Helper()
	record := &models.UserInventoryRecord{
		ID:            uuid.New(),
		RequesterID:   requesterID,
		RequestID:     uuid.New(),
		ComponentID:   uuid.New(),
		ComponentName: "stepper motor",
		Quantity:      2,
		Purpose:       "line follower",
		DueDate:       time.Now().Add(72 * time.Hour),
		Status:        status,
		Returned:      returned,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestDashboardBucketsRecords(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	seedRecord(t, db, "user-1", enums.RequestStatusPending, false)
	seedRecord(t, db, "user-1", enums.RequestStatusApproved, false)
	seedRecord(t, db, "user-1", enums.RequestStatusApproved, true)
	seedRecord(t, db, "user-1", enums.RequestStatusRejected, false)
	seedRecord(t, db, "user-2", enums.RequestStatusPending, false)

	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dash, err := svc.Dashboard(ctx, "user-1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.Pending) != 1 || len(dash.Holding) != 1 || len(dash.Returned) != 1 || len(dash.Rejected) != 1 {
		t.Fatalf("unexpected buckets: %+v", dash)
	}
}

func TestDashboardRequiresIdentity(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRepository(newTestDB(t)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Dashboard(context.Background(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestWriterUpdatesExistingRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	record := seedRecord(t, db, "user-1", enums.RequestStatusPending, false)
	writer := NewWriter()

	if err := writer.SetStatus(ctx, db, record.RequestID, enums.RequestStatusApproved); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := writer.MarkReturned(ctx, db, record.RequestID); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	var reloaded models.UserInventoryRecord
	if err := db.First(&reloaded, "request_id = ?", record.RequestID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.RequestStatusApproved || !reloaded.Returned {
		t.Fatalf("unexpected record: %+v", reloaded)
	}
}

func TestWriterSurfacesMissingMirrorRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	writer := NewWriter()

	err := writer.SetStatus(context.Background(), db, uuid.New(), enums.RequestStatusApproved)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInconsistent {
		t.Fatalf("expected inconsistent state, got %v", err)
	}
	err = writer.MarkReturned(context.Background(), db, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInconsistent {
		t.Fatalf("expected inconsistent state, got %v", err)
	}
}
