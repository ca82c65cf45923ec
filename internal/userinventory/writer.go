package userinventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

// Writer applies mirror updates inside a caller-owned transaction, one write
// per request transition. A missing mirror row on an update is surfaced as an
// inconsistency rather than silently recreated.
type Writer struct{}

// NewWriter returns the production mirror writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) CreateFromRequest(ctx context.Context, tx *gorm.DB, request *models.Request) error {
	record := models.UserInventoryRecord{
		ID:            uuid.New(),
		RequesterID:   request.RequesterID,
		RequestID:     request.ID,
		ComponentID:   request.ComponentID,
		ComponentName: request.ComponentName,
		ImageKey:      request.ImageKey,
		Quantity:      request.Quantity,
		Purpose:       request.Purpose,
		DueDate:       request.DueDate,
		Status:        request.Status,
	}
	if err := NewRepository(tx).Create(ctx, &record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create mirror record")
	}
	return nil
}

func (w *Writer) SetStatus(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, status enums.RequestStatus) error {
	rows, err := NewRepository(tx).SetStatus(ctx, requestID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update mirror status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInconsistent,
			fmt.Sprintf("no mirror record found for request %s", requestID))
	}
	return nil
}

func (w *Writer) MarkReturned(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	rows, err := NewRepository(tx).MarkReturned(ctx, requestID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark mirror returned")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInconsistent,
			fmt.Sprintf("no mirror record found for request %s", requestID))
	}
	return nil
}
