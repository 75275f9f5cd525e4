package models

import (
	"fmt"
	"strings"
)

// Role is the normalized role of an authenticated user
type Role string

const (
	RoleUnknown       Role = ""
	RoleAdmin         Role = "ADMIN"
	RoleOwner         Role = "OWNER"
	RoleTeacher       Role = "TEACHER"
	RoleStudent       Role = "STUDENT"
	RoleSubAdmin      Role = "SUB_ADMIN"
	RoleScheduleAdmin Role = "SCHEDULE_ADMIN"
	RoleFormCreator   Role = "FORM_CREATOR"
	RoleExamUploader  Role = "EXAM_UPLOADER"
)

const (
	maxBattalion = 4
	maxCompany   = 5
)

var staticRoles = []Role{
	RoleAdmin,
	RoleOwner,
	RoleTeacher,
	RoleStudent,
	RoleSubAdmin,
	RoleScheduleAdmin,
	RoleFormCreator,
	RoleExamUploader,
}

// CompanyRole returns the company-scoped role BAT{battalion}_COM{company}
func CompanyRole(battalion, company int) Role {
	return Role(fmt.Sprintf("BAT%d_COM%d", battalion, company))
}

// AllRoles returns every known role, static roles first
func AllRoles() []Role {
	roles := make([]Role, 0, len(staticRoles)+maxBattalion*maxCompany)
	roles = append(roles, staticRoles...)
	for b := 1; b <= maxBattalion; b++ {
		for c := 1; c <= maxCompany; c++ {
			roles = append(roles, CompanyRole(b, c))
		}
	}
	return roles
}

// ParseRole normalizes a raw role string coming from the API or a token.
// Unknown values map to RoleUnknown.
func ParseRole(raw string) Role {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	s = strings.TrimPrefix(s, "ROLE_")

	r := Role(s)
	for _, known := range staticRoles {
		if r == known {
			return r
		}
	}
	if _, _, ok := r.companyScope(); ok {
		return r
	}
	return RoleUnknown
}

// ParseRoles normalizes a list of raw role strings, dropping unknown ones
func ParseRoles(raw []string) []Role {
	roles := make([]Role, 0, len(raw))
	for _, s := range raw {
		if r := ParseRole(s); r != RoleUnknown {
			roles = append(roles, r)
		}
	}
	return roles
}

// IsValid reports whether the role is a known role
func (r Role) IsValid() bool {
	return r != RoleUnknown && ParseRole(string(r)) == r
}

// BypassesProfileCheck reports whether the role skips the profile-completeness check
func (r Role) BypassesProfileCheck() bool {
	return r == RoleAdmin || r == RoleOwner
}

// IsCompany reports whether the role is scoped to a battalion company
func (r Role) IsCompany() bool {
	_, _, ok := r.companyScope()
	return ok
}

// Battalion returns the battalion number of a company role, 0 otherwise
func (r Role) Battalion() int {
	b, _, _ := r.companyScope()
	return b
}

// Company returns the company number of a company role, 0 otherwise
func (r Role) Company() int {
	_, c, _ := r.companyScope()
	return c
}

func (r Role) companyScope() (battalion, company int, ok bool) {
	s := string(r)
	if len(s) != len("BAT0_COM0") || !strings.HasPrefix(s, "BAT") || s[4:8] != "_COM" {
		return 0, 0, false
	}
	b, c := int(s[3]-'0'), int(s[8]-'0')
	if b < 1 || b > maxBattalion || c < 1 || c > maxCompany {
		return 0, 0, false
	}
	return b, c, true
}

// In reports whether r is one of roles
func (r Role) In(roles []Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
