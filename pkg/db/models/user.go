package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// AnonymousUserName is the display name given to guest accounts.
const AnonymousUserName = "Khách hàng"

// User is a storefront identity; anonymous guests have no email or password.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Email        *string        `gorm:"column:email;uniqueIndex:users_email_key" json:"email"`
	PasswordHash *string        `gorm:"column:password_hash" json:"-"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null" json:"role"`
	IsAnonymous  bool           `gorm:"column:is_anonymous;not null;default:false" json:"isAnonymous"`
	IsActive     bool           `gorm:"column:is_active;not null" json:"isActive"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = enums.UserRoleCustomer
	}
	return nil
}

// Status maps the active flag onto the admin facing status.
func (u User) Status() enums.UserStatus {
	if u.IsActive {
		return enums.UserStatusActive
	}
	return enums.UserStatusInactive
}
