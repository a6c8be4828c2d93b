package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

// Service is the admin user management surface.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[AdminUserView], error)
	Get(ctx context.Context, id uuid.UUID) (*AdminUserView, error)
	SetStatus(ctx context.Context, actorID, id uuid.UUID, update StatusUpdate) (*UserDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[AdminUserView], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[AdminUserView]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return pagination.Page[AdminUserView]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	page := pagination.Trim(rows, params.Limit, func(r AdminUserRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := pagination.Page[AdminUserView]{Items: make([]AdminUserView, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, row := range page.Items {
		out.Items = append(out.Items, viewOf(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AdminUserView, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	view := viewOf(AdminUserRow{User: *user, OrderCount: count})
	return &view, nil
}

// SetStatus activates or deactivates a user. Admins cannot change their own status.
func (s *service) SetStatus(ctx context.Context, actorID, id uuid.UUID, update StatusUpdate) (*UserDTO, error) {
	if !update.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", update.Status)
	}
	if actorID == id {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot change your own status")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	active := update.Status == enums.UserStatusActive
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user status")
	}
	user.IsActive = active
	return FromModel(user), nil
}

// Delete removes a user without orders. A user with orders is deactivated instead
// so order history keeps its owner.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) (*DeleteResult, error) {
	if actorID == id {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot delete your own account")
	}
	var result *DeleteResult
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		if user == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		count, err := repo.CountOrders(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
		}
		if count > 0 {
			if err := repo.SetActive(ctx, id, false); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
			}
			result = &DeleteResult{Deactivated: true, Message: fmt.Sprintf("user has %d orders and was deactivated instead", count)}
			return nil
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
		result = &DeleteResult{Deleted: true, Message: "user deleted"}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
