package model

import "github.com/google/uuid"

type UserRole string

const (
	RoleOwner            UserRole = "OWNER"
	RoleDealingAssistant UserRole = "DEALING_ASSISTANT"
	RoleDtdo             UserRole = "DTDO"
	RoleDepartmentAdmin  UserRole = "DEPARTMENT_ADMIN"
)

type Principal struct {
	UserID       uuid.UUID
	Role         UserRole
	DistrictCode string
}

func (p Principal) IsOwner() bool {
	return p.Role == RoleOwner
}

func (p Principal) IsDA() bool {
	return p.Role == RoleDealingAssistant
}

func (p Principal) IsDtdo() bool {
	return p.Role == RoleDtdo
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleDepartmentAdmin
}

// IsStaff covers every reviewing role with district-office access.
func (p Principal) IsStaff() bool {
	return p.IsDA() || p.IsDtdo() || p.IsAdmin()
}
