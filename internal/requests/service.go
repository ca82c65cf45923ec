package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/navnoorsingh0309/inventory-management/internal/components"
	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
	"github.com/navnoorsingh0309/inventory-management/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo       Repository
	catalog    ComponentReader
	tx         txRunner
	ledger     StockLedger
	mirror     MirrorWriter
	logg       *logger.Logger
	transition *metrics.TransitionMetrics
	now        func() time.Time
}

// NewService builds the reconciliation engine with the required dependencies.
// Metrics may be nil.
func NewService(
	repo Repository,
	catalog ComponentReader,
	tx txRunner,
	ledger StockLedger,
	mirror MirrorWriter,
	logg *logger.Logger,
	transition *metrics.TransitionMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("component reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if mirror == nil {
		return nil, fmt.Errorf("mirror writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		catalog:    catalog,
		tx:         tx,
		ledger:     ledger,
		mirror:     mirror,
		logg:       logg,
		transition: transition,
		now:        time.Now,
	}, nil
}

type defaultLedger struct{}

// NewLedger returns the production stock ledger backed by the components package.
func NewLedger() StockLedger {
	return defaultLedger{}
}

func (defaultLedger) Reserve(ctx context.Context, tx *gorm.DB, input components.ReserveInput) error {
	return components.Reserve(ctx, tx, input)
}

func (defaultLedger) Release(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	return components.Release(ctx, tx, requestID)
}

func (defaultLedger) AttributeToProject(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, projectRef string) error {
	return components.AttributeToProject(ctx, tx, requestID, projectRef)
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*models.Request, error) {
	if input.ComponentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "component id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Purpose == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purpose required")
	}
	if input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date required")
	}
	if input.HolderName == "" || input.HolderEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "holder name and email required")
	}

	requesterID := input.Actor.UserID
	if input.OnBehalfOf != "" && input.OnBehalfOf != input.Actor.UserID {
		if !input.Actor.Role.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may file requests for others")
		}
		requesterID = input.OnBehalfOf
	}
	if requesterID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity missing")
	}

	component, err := s.catalog.FindByID(ctx, input.ComponentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load component")
	}
	if input.Actor.Category != component.Category && input.Actor.Role < enums.RoleCoSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "component belongs to another category")
	}

	request := &models.Request{
		ID:            uuid.New(),
		RequesterID:   requesterID,
		ComponentID:   component.ID,
		Category:      component.Category,
		ComponentName: component.Name,
		ImageKey:      component.ImageKey,
		HolderName:    input.HolderName,
		HolderEmail:   input.HolderEmail,
		HolderPhone:   input.HolderPhone,
		Quantity:      input.Quantity,
		Purpose:       input.Purpose,
		DueDate:       input.DueDate,
		Status:        enums.RequestStatusPending,
	}

	// Stock is deliberately not reserved here: reservation happens at approval,
	// first approved wins when pending requests oversubscribe.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
		}
		if err := s.mirror.CreateFromRequest(ctx, tx, request); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Request, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	if request.RequesterID != actor.UserID && !actor.Role.CanManageCategory(actor.Category, request.Category) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another requester")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, input ListRequestsInput) (*RequestList, error) {
	if !input.Actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	category := input.Category
	if input.Actor.Role < enums.RoleCoSuperAdmin {
		if category != "" && category != input.Actor.Category {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
		}
		category = input.Actor.Category
	}

	var (
		rows []models.Request
		err  error
	)
	if category == "" {
		rows, err = s.repo.ListAll(ctx, input.Status)
	} else {
		rows, err = s.repo.ListByCategory(ctx, category, input.Status)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}

	now := s.now()
	list := &RequestList{Requests: rows}
	if input.Status == nil || *input.Status == enums.RequestStatusApproved {
		current := make([]models.Request, 0, len(rows))
		for _, row := range rows {
			if row.IsOverdue(now) {
				list.Overdue = append(list.Overdue, row)
				continue
			}
			current = append(current, row)
		}
		list.Requests = current
	}

	if list.Stats.Pending, err = s.repo.CountByStatus(ctx, category, enums.RequestStatusPending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending")
	}
	if list.Stats.Approved, err = s.repo.CountByStatus(ctx, category, enums.RequestStatusApproved); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved")
	}
	if list.Stats.Overdue, err = s.repo.CountOverdue(ctx, category, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overdue")
	}
	return list, nil
}

// Approve reserves stock and flips the request in one transaction. Step order
// is ledger, request, mirror; the conditional status write loses on a stale
// view and rolls back everything including the reservation.
func (s *service) Approve(ctx context.Context, input TransitionInput) (*models.Request, error) {
	const transition = "approve"
	start := s.now()

	request, err := s.runTransition(ctx, input, enums.RequestStatusPending, func(tx *gorm.DB, request *models.Request) error {
		if err := s.ledger.Reserve(ctx, tx, components.ReserveInput{
			ComponentID: request.ComponentID,
			RequestID:   request.ID,
			Quantity:    request.Quantity,
			HolderName:  request.HolderName,
			HolderEmail: request.HolderEmail,
			HolderPhone: request.HolderPhone,
		}); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				s.transition.IncStockRejection(request.Category)
			}
			return err
		}

		rows, err := s.repo.WithTx(tx).MarkStatus(ctx, request.ID, enums.RequestStatusPending, enums.RequestStatusApproved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request approved")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request is no longer pending")
		}
		request.Status = enums.RequestStatusApproved

		return s.mirror.SetStatus(ctx, tx, request.ID, enums.RequestStatusApproved)
	})
	s.finish(ctx, transition, start, err)
	return request, err
}

func (s *service) Reject(ctx context.Context, input TransitionInput) (*models.Request, error) {
	const transition = "reject"
	start := s.now()

	// No ledger call: nothing was reserved at creation.
	request, err := s.runTransition(ctx, input, enums.RequestStatusPending, func(tx *gorm.DB, request *models.Request) error {
		rows, err := s.repo.WithTx(tx).MarkStatus(ctx, request.ID, enums.RequestStatusPending, enums.RequestStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request rejected")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request is no longer pending")
		}
		request.Status = enums.RequestStatusRejected

		return s.mirror.SetStatus(ctx, tx, request.ID, enums.RequestStatusRejected)
	})
	s.finish(ctx, transition, start, err)
	return request, err
}

func (s *service) ReturnAsComponent(ctx context.Context, input TransitionInput) (*models.Request, error) {
	const transition = "return_as_component"
	start := s.now()

	request, err := s.runTransition(ctx, input, enums.RequestStatusApproved, func(tx *gorm.DB, request *models.Request) error {
		if err := s.ledger.Release(ctx, tx, request.ID); err != nil {
			return err
		}

		rows, err := s.repo.WithTx(tx).MarkReturned(ctx, request.ID, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request returned")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already returned")
		}
		request.Returned = true

		return s.mirror.MarkReturned(ctx, tx, request.ID)
	})
	s.finish(ctx, transition, start, err)
	return request, err
}

func (s *service) ReturnAsProject(ctx context.Context, input ReturnAsProjectInput) (*models.Request, error) {
	const transition = "return_as_project"
	start := s.now()

	if strings.TrimSpace(input.ProjectRef) == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "project reference required")
		s.finish(ctx, transition, start, err)
		return nil, err
	}
	projectRef := strings.TrimSpace(input.ProjectRef)

	request, err := s.runTransition(ctx, TransitionInput{Actor: input.Actor, RequestID: input.RequestID}, enums.RequestStatusApproved, func(tx *gorm.DB, request *models.Request) error {
		// in_use stays put: project consumption is terminal, not a restock
		if err := s.ledger.AttributeToProject(ctx, tx, request.ID, projectRef); err != nil {
			return err
		}

		rows, err := s.repo.WithTx(tx).MarkReturned(ctx, request.ID, &projectRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request consumed")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already returned")
		}
		request.Returned = true
		request.ReturnedProject = &projectRef

		return s.mirror.MarkReturned(ctx, tx, request.ID)
	})
	s.finish(ctx, transition, start, err)
	return request, err
}

// runTransition wraps the shared shell of every lifecycle transition: load the
// request, check the actor may manage its category, check the source state,
// then run the transition body inside one transaction.
func (s *service) runTransition(
	ctx context.Context,
	input TransitionInput,
	from enums.RequestStatus,
	fn func(tx *gorm.DB, request *models.Request) error,
) (*models.Request, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.Actor.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Request
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, input.RequestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}
		if !input.Actor.Role.CanManageCategory(input.Actor.Category, request.Category) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not an admin for this category")
		}
		if request.Status != from || (from == enums.RequestStatusApproved && request.Returned) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("transition not allowed from status %s", request.Status)).
				WithDetails(map[string]any{"status": request.Status, "returned": request.Returned})
		}

		if err := fn(tx, request); err != nil {
			return err
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) finish(ctx context.Context, transition string, start time.Time, err error) {
	s.transition.ObserveDuration(transition, s.now().Sub(start))

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if typed := pkgerrors.As(err); typed != nil {
			outcome = strings.ToLower(string(typed.Code()))
			if typed.Code() == pkgerrors.CodeInconsistent {
				ctx = s.logg.WithField(ctx, "transition", transition)
				s.logg.Error(ctx, "inventory state inconsistent, transition aborted", err)
			}
		}
	}
	s.transition.IncOutcome(transition, outcome)
}
