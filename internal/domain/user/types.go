package user

import "errors"

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	// RoleMember is any authenticated user; provider access is decided by membership.
	RoleMember Role = "member"
	// RolePlatformAdmin bypasses provider membership checks.
	RolePlatformAdmin Role = "platform_admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RolePlatformAdmin:
		return true
	default:
		return false
	}
}

func (r Role) IsPlatformAdmin() bool {
	return r == RolePlatformAdmin
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
