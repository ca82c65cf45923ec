package userinventory

import (
	"context"
	"fmt"

	"github.com/navnoorsingh0309/inventory-management/pkg/db/models"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
)

// Dashboard is a requester's personal view, bucketed so the client renders
// each tab without re-filtering.
type Dashboard struct {
	Pending  []models.UserInventoryRecord `json:"pending"`
	Holding  []models.UserInventoryRecord `json:"holding"`
	Returned []models.UserInventoryRecord `json:"returned"`
	Rejected []models.UserInventoryRecord `json:"rejected"`
}

// Service serves the my-inventory read path from the mirror alone, never
// joining across the request or component tables.
type Service interface {
	Dashboard(ctx context.Context, requesterID string) (*Dashboard, error)
}

type service struct {
	repo Repository
}

// NewService builds the mirror read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Dashboard(ctx context.Context, requesterID string) (*Dashboard, error) {
	if requesterID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "requester identity missing")
	}

	records, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mirror records")
	}

	out := &Dashboard{}
	for _, record := range records {
		switch {
		case record.Status == enums.RequestStatusPending:
			out.Pending = append(out.Pending, record)
		case record.Status == enums.RequestStatusRejected:
			out.Rejected = append(out.Rejected, record)
		case record.Returned:
			out.Returned = append(out.Returned, record)
		default:
			out.Holding = append(out.Holding, record)
		}
	}
	return out, nil
}
