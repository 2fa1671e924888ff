package auth

import "strings"

type Role string

const (
	RoleResident Role = "resident"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a stored role string onto a known Role, defaulting to
// resident for anything unrecognized.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleManager):
		return RoleManager
	case string(RoleResident):
		return RoleResident
	default:
		return RoleResident
	}
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

// CanManage reports whether the role may perform building-management
// operations (announcements, package log, resident administration).
func CanManage(role string) bool {
	normalized := NormalizeRole(role)
	return normalized == RoleManager || normalized == RoleAdmin
}
