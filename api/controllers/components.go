package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/api/middleware"
	"github.com/navnoorsingh0309/inventory-management/api/responses"
	"github.com/navnoorsingh0309/inventory-management/api/validators"
	componentsvc "github.com/navnoorsingh0309/inventory-management/internal/components"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

func componentActor(r *http.Request) componentsvc.Actor {
	return componentsvc.Actor{
		UserID:   middleware.UserIDFromContext(r.Context()),
		Role:     middleware.RoleFromContext(r.Context()),
		Category: middleware.CategoryFromContext(r.Context()),
	}
}

// ComponentCreate registers a new catalog entry for the admin's category.
func ComponentCreate(svc componentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "component service unavailable"))
			return
		}

		var payload createComponentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := componentActor(r)
		category := payload.Category
		if category == "" {
			category = actor.Category
		}

		record, err := svc.Create(r.Context(), componentsvc.CreateComponentInput{
			Actor:    actor,
			Category: category,
			Name:     payload.Name,
			Link:     payload.Link,
			ImageKey: payload.ImageKey,
			InStock:  payload.InStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newComponentResponse(record))
	}
}

// ComponentList serves the catalog view, scoped by category for members.
func ComponentList(svc componentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "component service unavailable"))
			return
		}

		records, err := svc.List(r.Context(), componentActor(r), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]componentResponse, 0, len(records))
		for i := range records {
			out = append(out, newComponentResponse(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ComponentGet returns a single catalog entry with its usage attribution.
func ComponentGet(svc componentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "component service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "componentId"), "componentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), componentActor(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newComponentResponse(record))
	}
}

// ComponentAdjustStock corrects the total-owned counter. Reductions below the
// units currently out on loan are refused.
func ComponentAdjustStock(svc componentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "component service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "componentId"), "componentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AdjustStock(r.Context(), componentsvc.AdjustStockInput{
			Actor:       componentActor(r),
			ComponentID: id,
			NewInStock:  payload.InStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newComponentResponse(record))
	}
}

// ComponentDelete retires a catalog entry. Entries with units out on loan are
// refused.
func ComponentDelete(svc componentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "component service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "componentId"), "componentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), componentActor(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createComponentRequest struct {
	Category string  `json:"category"`
	Name     string  `json:"name" validate:"required"`
	Link     *string `json:"link" validate:"omitempty,url"`
	ImageKey *string `json:"image_key"`
	InStock  int     `json:"in_stock" validate:"gte=0"`
}

type adjustStockRequest struct {
	InStock int `json:"in_stock" validate:"gte=0"`
}

type componentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Link      *string         `json:"link,omitempty"`
	ImageKey  *string         `json:"image_key,omitempty"`
	InStock   int             `json:"in_stock"`
	InUse     int             `json:"in_use"`
	Available int             `json:"available"`
	UsedWhere []usageResponse `json:"used_where,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type usageResponse struct {
	RequestID   uuid.UUID `json:"request_id"`
	HolderName  string    `json:"holder_name"`
	HolderEmail string    `json:"holder_email"`
	HolderPhone string    `json:"holder_phone,omitempty"`
	Quantity    int       `json:"quantity"`
	Project     *string   `json:"project,omitempty"`
}

func newComponentResponse(record *models.Component) componentResponse {
	usages := make([]usageResponse, 0, len(record.UsedWhere))
	for _, usage := range record.UsedWhere {
		usages = append(usages, usageResponse{
			RequestID:   usage.RequestID,
			HolderName:  usage.HolderName,
			HolderEmail: usage.HolderEmail,
			HolderPhone: usage.HolderPhone,
			Quantity:    usage.Quantity,
			Project:     usage.Project,
		})
	}

	return componentResponse{
		ID:        record.ID,
		Category:  record.Category,
		Name:      record.Name,
		Link:      record.Link,
		ImageKey:  record.ImageKey,
		InStock:   record.InStock,
		InUse:     record.InUse,
		Available: record.Available(),
		UsedWhere: usages,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
