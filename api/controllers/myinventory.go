package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/api/middleware"
	"github.com/navnoorsingh0309/inventory-management/api/responses"
	userinvsvc "github.com/navnoorsingh0309/inventory-management/internal/userinventory"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

// MyInventory serves the requester's bucketed dashboard from the mirror.
func MyInventory(svc userinvsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		dashboard, err := svc.Dashboard(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDashboardResponse(dashboard))
	}
}

type mirrorRecordResponse struct {
	RequestID     uuid.UUID `json:"request_id"`
	ComponentID   uuid.UUID `json:"component_id"`
	ComponentName string    `json:"component_name"`
	ImageKey      *string   `json:"image_key,omitempty"`
	Quantity      int       `json:"quantity"`
	Purpose       string    `json:"purpose"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	Returned      bool      `json:"returned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type dashboardResponse struct {
	Pending  []mirrorRecordResponse `json:"pending"`
	Holding  []mirrorRecordResponse `json:"holding"`
	Returned []mirrorRecordResponse `json:"returned"`
	Rejected []mirrorRecordResponse `json:"rejected"`
}

func newDashboardResponse(dashboard *userinvsvc.Dashboard) dashboardResponse {
	convert := func(records []models.UserInventoryRecord) []mirrorRecordResponse {
		out := make([]mirrorRecordResponse, 0, len(records))
		for _, record := range records {
			out = append(out, mirrorRecordResponse{
				RequestID:     record.RequestID,
				ComponentID:   record.ComponentID,
				ComponentName: record.ComponentName,
				ImageKey:      record.ImageKey,
				Quantity:      record.Quantity,
				Purpose:       record.Purpose,
				DueDate:       record.DueDate,
				Status:        string(record.Status),
				Returned:      record.Returned,
				CreatedAt:     record.CreatedAt,
				UpdatedAt:     record.UpdatedAt,
			})
		}
		return out
	}

	return dashboardResponse{
		Pending:  convert(dashboard.Pending),
		Holding:  convert(dashboard.Holding),
		Returned: convert(dashboard.Returned),
		Rejected: convert(dashboard.Rejected),
	}
}
