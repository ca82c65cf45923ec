package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/navnoorsingh0309/inventory-management/api/middleware"
	"github.com/navnoorsingh0309/inventory-management/api/responses"
	"github.com/navnoorsingh0309/inventory-management/api/validators"
	requestsvc "github.com/navnoorsingh0309/inventory-management/internal/requests"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

func requestActor(r *http.Request) requestsvc.Actor {
	return requestsvc.Actor{
		UserID:   middleware.UserIDFromContext(r.Context()),
		Role:     middleware.RoleFromContext(r.Context()),
		Category: middleware.CategoryFromContext(r.Context()),
	}
}

// RequestCreate files a borrow request. Stock is untouched until approval.
func RequestCreate(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		var payload createBorrowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), requestsvc.CreateRequestInput{
			Actor:       requestActor(r),
			ComponentID: payload.ComponentID,
			Quantity:    payload.Quantity,
			Purpose:     payload.Purpose,
			DueDate:     payload.DueDate,
			HolderName:  payload.HolderName,
			HolderEmail: payload.HolderEmail,
			HolderPhone: payload.HolderPhone,
			OnBehalfOf:  payload.OnBehalfOf,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRequestResponse(record, time.Now()))
	}
}

// RequestList serves the admin queue view with the derived overdue slice.
func RequestList(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		status, err := validators.ParseStatusQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), requestsvc.ListRequestsInput{
			Actor:    requestActor(r),
			Category: r.URL.Query().Get("category"),
			Status:   status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestListResponse(list, time.Now()))
	}
}

// RequestGet returns one request, visible to its requester and to admins.
func RequestGet(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), requestActor(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record, time.Now()))
	}
}

// RequestApprove reserves stock and moves a pending request to approved.
func RequestApprove(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, svcApprove)
}

// RequestReject closes a pending request without touching stock.
func RequestReject(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, svcReject)
}

// RequestReturnComponent releases reserved units back to the shelf.
func RequestReturnComponent(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, svcReturnComponent)
}

// RequestReturnProject retires borrowed units into a named project.
func RequestReturnProject(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnProjectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ReturnAsProject(r.Context(), requestsvc.ReturnAsProjectInput{
			Actor:      requestActor(r),
			RequestID:  id,
			ProjectRef: payload.Project,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record, time.Now()))
	}
}

type transitionFunc func(requestsvc.Service, *http.Request, requestsvc.TransitionInput) (*models.Request, error)

func svcApprove(svc requestsvc.Service, r *http.Request, input requestsvc.TransitionInput) (*models.Request, error) {
	return svc.Approve(r.Context(), input)
}

func svcReject(svc requestsvc.Service, r *http.Request, input requestsvc.TransitionInput) (*models.Request, error) {
	return svc.Reject(r.Context(), input)
}

func svcReturnComponent(svc requestsvc.Service, r *http.Request, input requestsvc.TransitionInput) (*models.Request, error) {
	return svc.ReturnAsComponent(r.Context(), input)
}

func transitionHandler(svc requestsvc.Service, logg *logger.Logger, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := fn(svc, r, requestsvc.TransitionInput{
			Actor:     requestActor(r),
			RequestID: id,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newRequestResponse(record, time.Now()))
	}
}

type createBorrowRequest struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
	Purpose     string    `json:"purpose" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	HolderName  string    `json:"holder_name" validate:"required"`
	HolderEmail string    `json:"holder_email" validate:"required,email"`
	HolderPhone string    `json:"holder_phone"`
	OnBehalfOf  string    `json:"on_behalf_of"`
}

type returnProjectRequest struct {
	Project string `json:"project" validate:"required"`
}

type requestResponse struct {
	ID              uuid.UUID `json:"id"`
	RequesterID     string    `json:"requester_id"`
	ComponentID     uuid.UUID `json:"component_id"`
	Category        string    `json:"category"`
	ComponentName   string    `json:"component_name"`
	ImageKey        *string   `json:"image_key,omitempty"`
	HolderName      string    `json:"holder_name"`
	HolderEmail     string    `json:"holder_email"`
	HolderPhone     string    `json:"holder_phone,omitempty"`
	Quantity        int       `json:"quantity"`
	Purpose         string    `json:"purpose"`
	DueDate         time.Time `json:"due_date"`
	Status          string    `json:"status"`
	Returned        bool      `json:"returned"`
	ReturnedProject *string   `json:"returned_project,omitempty"`
	Overdue         bool      `json:"overdue"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type requestListResponse struct {
	Requests []requestResponse `json:"requests"`
	Overdue  []requestResponse `json:"overdue,omitempty"`
	Stats    requestsvc.Stats  `json:"stats"`
}

func newRequestResponse(record *models.Request, now time.Time) requestResponse {
	return requestResponse{
		ID:              record.ID,
		RequesterID:     record.RequesterID,
		ComponentID:     record.ComponentID,
		Category:        record.Category,
		ComponentName:   record.ComponentName,
		ImageKey:        record.ImageKey,
		HolderName:      record.HolderName,
		HolderEmail:     record.HolderEmail,
		HolderPhone:     record.HolderPhone,
		Quantity:        record.Quantity,
		Purpose:         record.Purpose,
		DueDate:         record.DueDate,
		Status:          string(record.Status),
		Returned:        record.Returned,
		ReturnedProject: record.ReturnedProject,
		Overdue:         record.IsOverdue(now),
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func newRequestListResponse(list *requestsvc.RequestList, now time.Time) requestListResponse {
	out := requestListResponse{Stats: list.Stats}
	out.Requests = make([]requestResponse, 0, len(list.Requests))
	for i := range list.Requests {
		out.Requests = append(out.Requests, newRequestResponse(&list.Requests[i], now))
	}
	for i := range list.Overdue {
		out.Overdue = append(out.Overdue, newRequestResponse(&list.Overdue[i], now))
	}
	return out
}
