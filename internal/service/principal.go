package service

import (
	"strings"

	"github.com/noah-isme/smart-student-hub/internal/models"
)

// Principal is the authenticated actor behind a request. The access boundary
// supplies it and the services trust it verbatim.
type Principal struct {
	ID   uint
	Role string
}

func (p Principal) role() string {
	return strings.ToLower(strings.TrimSpace(p.Role))
}

// IsStudent reports whether the principal may own activities.
func (p Principal) IsStudent() bool {
	return p.ID != 0 && p.role() == models.RoleStudent
}

// CanReview reports whether the principal holds the faculty/admin capability.
func (p Principal) CanReview() bool {
	if p.ID == 0 {
		return false
	}
	switch p.role() {
	case models.RoleFaculty, models.RoleAdmin:
		return true
	default:
		return false
	}
}
