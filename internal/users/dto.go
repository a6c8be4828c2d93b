package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Email       *string          `json:"email"`
	Role        enums.UserRole   `json:"role"`
	Status      enums.UserStatus `json:"status"`
	IsAnonymous bool             `json:"isAnonymous"`
	LastLoginAt *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status(),
		IsAnonymous: u.IsAnonymous,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// AdminUserRow is a user with the number of orders they placed.
type AdminUserRow struct {
	models.User
	OrderCount int64 `gorm:"column:order_count" json:"orderCount"`
}

// AdminUserView is what the admin user list and detail return.
type AdminUserView struct {
	UserDTO
	OrderCount int64 `json:"orderCount"`
}

func viewOf(row AdminUserRow) AdminUserView {
	return AdminUserView{UserDTO: *FromModel(&row.User), OrderCount: row.OrderCount}
}

// StatusUpdate is the admin body for activating or deactivating a user.
type StatusUpdate struct {
	Status enums.UserStatus `json:"status" validate:"required"`
}

// DeleteResult tells the caller whether the user was removed or only deactivated.
type DeleteResult struct {
	Deleted     bool   `json:"deleted"`
	Deactivated bool   `json:"deactivated"`
	Message     string `json:"message"`
}
