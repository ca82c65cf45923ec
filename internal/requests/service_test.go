package requests

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/internal/components"
	"github.com/navnoorsingh0309/inventory-management/internal/userinventory"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:requests_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Component{},
		&models.Usage{},
		&models.Request{},
		&models.UserInventoryRecord{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newEngine(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "requests-test", Output: io.Discard})
	svc, err := NewService(
		NewRepository(db),
		components.NewRepository(db),
		testTxRunner{db: db},
		NewLedger(),
		userinventory.NewWriter(),
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return svc, db
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

func member() Actor {
	return Actor{UserID: "member-1", Role: enums.RoleMember, Category: "robotics"}
}

func admin() Actor {
	return Actor{UserID: "admin-1", Role: enums.RoleCategoryAdmin, Category: "robotics"}
}

func createInput(componentID uuid.UUID, qty int) CreateRequestInput {
	return CreateRequestInput{
		Actor:       member(),
		ComponentID: componentID,
		Quantity:    qty,
		Purpose:     "line follower build",
		DueDate:     time.Now().Add(72 * time.Hour),
		HolderName:  "Jordan",
		HolderEmail: "jordan@example.edu",
		HolderPhone: "555-0100",
	}
}

func loadComponent(t *testing.T, db *gorm.DB, id uuid.UUID) models.Component {
	t.Helper()
	var component models.Component
	if err := db.First(&component, "id = ?", id).Error; err != nil {
		t.Fatalf("load component: %v", err)
	}
	return component
}

func loadMirror(t *testing.T, db *gorm.DB, requestID uuid.UUID) models.UserInventoryRecord {
	t.Helper()
	var record models.UserInventoryRecord
	if err := db.First(&record, "request_id = ?", requestID).Error; err != nil {
		t.Fatalf("load mirror: %v", err)
	}
	return record
}

func TestCreateLeavesStockUntouchedAndMirrors(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 10, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 4))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if request.Status != enums.RequestStatusPending || request.Returned {
		t.Fatalf("unexpected request: %+v", request)
	}
	if request.ComponentName != "stepper motor" || request.Category != "robotics" {
		t.Fatalf("denormalized fields missing: %+v", request)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 0 || reloaded.InStock != 10 {
		t.Fatalf("creation must not reserve stock: %+v", reloaded)
	}

	mirror := loadMirror(t, db, request.ID)
	if mirror.RequesterID != "member-1" || mirror.Status != enums.RequestStatusPending {
		t.Fatalf("unexpected mirror: %+v", mirror)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 10, 0)

	input := createInput(component.ID, 0)
	if _, err := svc.Create(ctx, input); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	input = createInput(uuid.New(), 2)
	if _, err := svc.Create(ctx, input); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown component, got %v", err)
	}
}

func TestAdminCreatesOnBehalfOfMember(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 10, 0)

	input := createInput(component.ID, 2)
	input.Actor = admin()
	input.OnBehalfOf = "member-7"
	request, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create on behalf: %v", err)
	}
	if request.RequesterID != "member-7" {
		t.Fatalf("expected requester member-7, got %q", request.RequesterID)
	}

	input.Actor = member()
	input.OnBehalfOf = "member-8"
	_, err = svc.Create(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for member on-behalf, got %v", err)
	}
}

func TestApproveReservesStockAndSyncsMirror(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.RequestStatusApproved {
		t.Fatalf("unexpected status %s", approved.Status)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 3 {
		t.Fatalf("expected in_use=3, got %d", reloaded.InUse)
	}

	var usage models.Usage
	if err := db.First(&usage, "request_id = ?", request.ID).Error; err != nil {
		t.Fatalf("load usage: %v", err)
	}
	if usage.Quantity != 3 || usage.HolderName != "Jordan" {
		t.Fatalf("unexpected usage: %+v", usage)
	}

	mirror := loadMirror(t, db, request.ID)
	if mirror.Status != enums.RequestStatusApproved {
		t.Fatalf("mirror not synced: %+v", mirror)
	}
}

func TestDoubleApprovalHasNoSideEffects(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err = svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 3 {
		t.Fatalf("second approve must not change counters, got %d", reloaded.InUse)
	}
}

func TestApproveRejectedRequestFails(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Reject(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err = svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApproveInsufficientStockKeepsRequestPending(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 3, 2)

	request, err := svc.Create(ctx, createInput(component.ID, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["available"] != 1 {
		t.Fatalf("expected available=1, got %v", typed.Details())
	}

	var reloaded models.Request
	if err := db.First(&reloaded, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.Status != enums.RequestStatusPending {
		t.Fatalf("request must stay pending, got %s", reloaded.Status)
	}

	comp := loadComponent(t, db, component.ID)
	if comp.InUse != 2 || comp.InStock != 3 {
		t.Fatalf("component must be unchanged: %+v", comp)
	}
}

func TestCompetingApprovalsFirstWins(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	first, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: first.ID}); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	_, err = svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: second.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock for second approval, got %v", err)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 3 {
		t.Fatalf("expected in_use=3, got %d", reloaded.InUse)
	}
}

func TestRejectPathLeavesComponentUntouched(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 10, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 4))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rejected, err := svc.Reject(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.RequestStatusRejected {
		t.Fatalf("unexpected status %s", rejected.Status)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InStock != 10 || reloaded.InUse != 0 {
		t.Fatalf("component must be unchanged: %+v", reloaded)
	}

	mirror := loadMirror(t, db, request.ID)
	if mirror.Status != enums.RequestStatusRejected {
		t.Fatalf("mirror not synced: %+v", mirror)
	}
}

func TestReturnAsComponentRoundTrip(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	returned, err := svc.ReturnAsComponent(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if !returned.Returned || returned.ReturnedProject != nil {
		t.Fatalf("unexpected request: %+v", returned)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 0 || reloaded.InStock != 5 {
		t.Fatalf("counters must be restored: %+v", reloaded)
	}

	var count int64
	if err := db.Model(&models.Usage{}).Where("request_id = ?", request.ID).Count(&count).Error; err != nil {
		t.Fatalf("count usages: %v", err)
	}
	if count != 0 {
		t.Fatal("usage entry must be removed")
	}

	mirror := loadMirror(t, db, request.ID)
	if !mirror.Returned {
		t.Fatalf("mirror not synced: %+v", mirror)
	}
}

func TestReturnAsProjectIsTerminalConsumption(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	returned, err := svc.ReturnAsProject(ctx, ReturnAsProjectInput{
		Actor:      admin(),
		RequestID:  request.ID,
		ProjectRef: "ProjectX",
	})
	if err != nil {
		t.Fatalf("return as project: %v", err)
	}
	if !returned.Returned || returned.ReturnedProject == nil || *returned.ReturnedProject != "ProjectX" {
		t.Fatalf("unexpected request: %+v", returned)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 2 {
		t.Fatalf("in_use must stay at approved value, got %d", reloaded.InUse)
	}

	var usage models.Usage
	if err := db.First(&usage, "request_id = ?", request.ID).Error; err != nil {
		t.Fatalf("load usage: %v", err)
	}
	if usage.Project == nil || *usage.Project != "ProjectX" {
		t.Fatalf("usage must carry project attribution: %+v", usage)
	}

	mirror := loadMirror(t, db, request.ID)
	if !mirror.Returned {
		t.Fatalf("mirror not synced: %+v", mirror)
	}
}

func TestReturnRequiresApprovedUnreturned(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.ReturnAsComponent(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending return, got %v", err)
	}

	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.ReturnAsComponent(ctx, TransitionInput{Actor: admin(), RequestID: request.ID}); err != nil {
		t.Fatalf("first return: %v", err)
	}

	_, err = svc.ReturnAsComponent(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for second return, got %v", err)
	}

	_, err = svc.ReturnAsProject(ctx, ReturnAsProjectInput{Actor: admin(), RequestID: request.ID, ProjectRef: "ProjectX"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for project return after component return, got %v", err)
	}
}

func TestTransitionsRequireCategoryAdmin(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Approve(ctx, TransitionInput{Actor: member(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for member, got %v", err)
	}

	foreign := Actor{UserID: "admin-2", Role: enums.RoleCategoryAdmin, Category: "aeronautics"}
	_, err = svc.Approve(ctx, TransitionInput{Actor: foreign, RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign admin, got %v", err)
	}

	root := Actor{UserID: "root", Role: enums.RoleSuperAdmin}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: root, RequestID: request.ID}); err != nil {
		t.Fatalf("super admin approve: %v", err)
	}
}

func TestListSplitsOverdueAndCountsStats(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 10, 0)

	overdueInput := createInput(component.ID, 1)
	overdueInput.DueDate = time.Now().Add(-24 * time.Hour)
	overdueReq, err := svc.Create(ctx, overdueInput)
	if err != nil {
		t.Fatalf("create overdue: %v", err)
	}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: overdueReq.ID}); err != nil {
		t.Fatalf("approve overdue: %v", err)
	}

	currentReq, err := svc.Create(ctx, createInput(component.ID, 1))
	if err != nil {
		t.Fatalf("create current: %v", err)
	}
	if _, err := svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: currentReq.ID}); err != nil {
		t.Fatalf("approve current: %v", err)
	}

	if _, err := svc.Create(ctx, createInput(component.ID, 2)); err != nil {
		t.Fatalf("create pending: %v", err)
	}

	status := enums.RequestStatusApproved
	list, err := svc.List(ctx, ListRequestsInput{Actor: admin(), Status: &status})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Requests) != 1 || len(list.Overdue) != 1 {
		t.Fatalf("unexpected split: current=%d overdue=%d", len(list.Requests), len(list.Overdue))
	}
	if list.Overdue[0].ID != overdueReq.ID {
		t.Fatalf("wrong request classified overdue")
	}
	if list.Stats.Pending != 1 || list.Stats.Approved != 2 || list.Stats.Overdue != 1 {
		t.Fatalf("unexpected stats: %+v", list.Stats)
	}

	// classification alone must not write anything
	var reloaded models.Request
	if err := db.First(&reloaded, "id = ?", overdueReq.ID).Error; err != nil {
		t.Fatalf("reload overdue: %v", err)
	}
	if reloaded.Status != enums.RequestStatusApproved || reloaded.Returned {
		t.Fatalf("overdue must be derived only: %+v", reloaded)
	}
}

func TestListForbiddenForMembers(t *testing.T) {
	t.Parallel()

	svc, _ := newEngine(t)
	_, err := svc.List(context.Background(), ListRequestsInput{Actor: member()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

type brokenMirror struct {
	*userinventory.Writer
}

func (brokenMirror) SetStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.RequestStatus) error {
	return pkgerrors.New(pkgerrors.CodeDependency, "mirror store unavailable")
}

// A failing mirror write after a successful reservation must roll back the
// whole transition, leaving no partial state observable.
func TestMirrorFailureRollsBackReservation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "requests-test", Output: io.Discard})
	svc, err := NewService(
		NewRepository(db),
		components.NewRepository(db),
		testTxRunner{db: db},
		NewLedger(),
		brokenMirror{userinventory.NewWriter()},
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)
	request := &models.Request{
		ID:            uuid.New(),
		RequesterID:   "member-1",
		ComponentID:   component.ID,
		Category:      "robotics",
		ComponentName: component.Name,
		HolderName:    "Jordan",
		HolderEmail:   "jordan@example.edu",
		Quantity:      3,
		Purpose:       "line follower build",
		DueDate:       time.Now().Add(72 * time.Hour),
		Status:        enums.RequestStatusPending,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}

	_, err = svc.Approve(ctx, TransitionInput{Actor: admin(), RequestID: request.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	reloaded := loadComponent(t, db, component.ID)
	if reloaded.InUse != 0 {
		t.Fatalf("reservation must be rolled back, got in_use=%d", reloaded.InUse)
	}

	var reloadedReq models.Request
	if err := db.First(&reloadedReq, "id = ?", request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloadedReq.Status != enums.RequestStatusPending {
		t.Fatalf("status must be rolled back, got %s", reloadedReq.Status)
	}

	var usageCount int64
	if err := db.Model(&models.Usage{}).Where("request_id = ?", request.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usages: %v", err)
	}
	if usageCount != 0 {
		t.Fatal("usage row must be rolled back")
	}
}

func TestGetScopedToRequesterOrAdmin(t *testing.T) {
	t.Parallel()

	svc, db := newEngine(t)
	ctx := context.Background()
	component := seedComponent(t, db, 5, 0)

	request, err := svc.Create(ctx, createInput(component.ID, 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, member(), request.ID); err != nil {
		t.Fatalf("requester get: %v", err)
	}
	if _, err := svc.Get(ctx, admin(), request.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	stranger := Actor{UserID: "member-9", Role: enums.RoleMember, Category: "aeronautics"}
	_, err = svc.Get(ctx, stranger, request.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
