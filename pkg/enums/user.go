package enums

// UserRole gates the admin surface.
type UserRole string

const (
	UserRoleCustomer UserRole = "user"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{UserRoleCustomer, UserRoleAdmin}

func (r UserRole) IsValid() bool { return contains(validUserRoles, r) }

func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}

// UserStatus is the admin facing activation state.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

var validUserStatuses = []UserStatus{UserStatusActive, UserStatusInactive}

func (s UserStatus) IsValid() bool { return contains(validUserStatuses, s) }

func ParseUserStatus(value string) (UserStatus, error) {
	return parse(validUserStatuses, value, "user status")
}
