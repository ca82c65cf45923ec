package components

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

// ReserveInput carries everything needed to hold stock for one request.
type ReserveInput struct {
	ComponentID uuid.UUID
	RequestID   uuid.UUID
	Quantity    int
	HolderName  string
	HolderEmail string
	HolderPhone string
}

// Reserve holds Quantity units of a component for a request and records the
// holder attribution. The availability check and increment happen in a single
// conditional UPDATE so two racing callers cannot both pass the check. The
// usage row keyed by request id makes re-applies no-ops.
func Reserve(ctx context.Context, tx *gorm.DB, input ReserveInput) error {
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}
	if input.ComponentID == uuid.Nil || input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "component and request ids required")
	}

	var existing models.Usage
	err := tx.WithContext(ctx).Where("request_id = ?", input.RequestID).First(&existing).Error
	if err == nil {
		// already reserved for this request
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage attribution")
	}

	res := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ? AND in_stock - in_use >= ?", input.ComponentID, input.Quantity).
		UpdateColumn("in_use", gorm.Expr("in_use + ?", input.Quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		var component models.Component
		err := tx.WithContext(ctx).Where("id = ?", input.ComponentID).First(&component).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component")
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"available": component.Available()})
	}

	usage := models.Usage{
		ID:          uuid.New(),
		ComponentID: input.ComponentID,
		RequestID:   input.RequestID,
		HolderName:  input.HolderName,
		HolderEmail: input.HolderEmail,
		HolderPhone: input.HolderPhone,
		Quantity:    input.Quantity,
	}
	if err := tx.WithContext(ctx).Create(&usage).Error; err != nil {
		return classifyAttributionInsertError(err)
	}
	return nil
}

// classifyAttributionInsertError maps a failed usage insert. A unique
// violation on request_id means another transaction reserved for this request
// between the existence check and the insert; that is a lost state race, not
// a store outage, so the caller gets a conflict instead of a retryable 503.
func classifyAttributionInsertError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "stock already reserved for this request")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create usage attribution")
}

// Release returns a request's reserved units to available stock and removes
// the holder attribution. A missing usage row means the release already
// happened, so it is a no-op. A counter that cannot absorb the decrement
// signals an earlier undetected race and is surfaced, never clamped.
func Release(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	var usage models.Usage
	err := tx.WithContext(ctx).Where("request_id = ?", requestID).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage attribution")
	}

	res := tx.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ? AND in_use >= ?", usage.ComponentID, usage.Quantity).
		UpdateColumn("in_use", gorm.Expr("in_use - ?", usage.Quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInconsistent,
			fmt.Sprintf("release of %d units exceeds in_use for component %s", usage.Quantity, usage.ComponentID)).
			WithDetails(map[string]any{"component_id": usage.ComponentID, "quantity": usage.Quantity})
	}

	if err := tx.WithContext(ctx).Where("request_id = ?", requestID).Delete(&models.Usage{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete usage attribution")
	}
	return nil
}

// AttributeToProject relabels a request's usage from holder-pending-return to
// project-consumed. in_use is deliberately untouched: project use is terminal
// consumption, not a restock.
func AttributeToProject(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, projectRef string) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if projectRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "project reference required")
	}

	res := tx.WithContext(ctx).
		Model(&models.Usage{}).
		Where("request_id = ?", requestID).
		UpdateColumn("project", projectRef)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "attribute usage to project")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInconsistent,
			fmt.Sprintf("no usage attribution found for request %s", requestID)).
			WithDetails(map[string]any{"request_id": requestID})
	}
	return nil
}
