package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/api/middleware"
	"github.com/navnoorsingh0309/inventory-management/api/responses"
	"github.com/navnoorsingh0309/inventory-management/api/validators"
	projectsvc "github.com/navnoorsingh0309/inventory-management/internal/projects"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

func projectActor(r *http.Request) projectsvc.Actor {
	return projectsvc.Actor{
		UserID:   middleware.UserIDFromContext(r.Context()),
		Role:     middleware.RoleFromContext(r.Context()),
		Category: middleware.CategoryFromContext(r.Context()),
	}
}

// ProjectCreate registers a named sink for consumed components.
func ProjectCreate(svc projectsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		var payload createProjectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := projectActor(r)
		category := payload.Category
		if category == "" {
			category = actor.Category
		}

		record, err := svc.Create(r.Context(), projectsvc.CreateProjectInput{
			Actor:       actor,
			Category:    category,
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProjectResponse(record))
	}
}

// ProjectList returns the registry for a category.
func ProjectList(svc projectsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		records, err := svc.List(r.Context(), projectActor(r), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]projectResponse, 0, len(records))
		for i := range records {
			out = append(out, newProjectResponse(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProjectDelete removes a registry entry. Past attributions keep the name.
func ProjectDelete(svc projectsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "projectId"), "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), projectActor(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createProjectRequest struct {
	Category    string  `json:"category"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type projectResponse struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProjectResponse(record *models.Project) projectResponse {
	return projectResponse{
		ID:          record.ID,
		Category:    record.Category,
		Name:        record.Name,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
