package access

import (
	"strings"

	"github.com/terra-clan/academy-console/internal/models"
)

// Screen is a navigation target of the console
type Screen struct {
	Path            string        `json:"path"`
	Title           string        `json:"title"`
	Roles           []models.Role `json:"roles,omitempty"`
	ProfileOptional bool          `json:"-"`
}

// Requirement returns the gate requirement of the screen
func (s Screen) Requirement() Requirement {
	return Requirement{Roles: s.Roles, ProfileOptional: s.ProfileOptional}
}

var (
	admins = []models.Role{models.RoleAdmin, models.RoleOwner}

	staff = []models.Role{models.RoleAdmin, models.RoleOwner, models.RoleSubAdmin, models.RoleTeacher}

	companyRoles = func() []models.Role {
		var roles []models.Role
		for _, r := range models.AllRoles() {
			if r.IsCompany() {
				roles = append(roles, r)
			}
		}
		return roles
	}()
)

func with(base []models.Role, extra ...models.Role) []models.Role {
	return append(append([]models.Role{}, base...), extra...)
}

// Screens is the route table of the console. An empty role list admits any
// authenticated user.
var Screens = []Screen{
	{Path: "/home", Title: "Home", ProfileOptional: true},
	{Path: "/profile", Title: "Profile", ProfileOptional: true},
	{Path: "/dashboard", Title: "Dashboard", Roles: with(staff, models.RoleScheduleAdmin)},
	{Path: "/users", Title: "Users", Roles: with(admins, models.RoleSubAdmin)},
	{Path: "/evaluation-templates", Title: "Evaluation templates", Roles: with(admins, models.RoleFormCreator)},
	{Path: "/student-evaluations", Title: "Student evaluations", Roles: with(staff, companyRoles...)},
	{Path: "/evaluations", Title: "Service evaluations", Roles: with(admins, models.RoleSubAdmin, models.RoleExamUploader)},
	{Path: "/exam-upload", Title: "Exam upload", Roles: with(admins, models.RoleExamUploader)},
	{Path: "/soldier-intake", Title: "Soldier intake", Roles: with(admins, models.RoleSubAdmin)},
	{Path: "/schedule", Title: "Schedule", Roles: with(admins, models.RoleScheduleAdmin, models.RoleTeacher)},
	{Path: "/tasks", Title: "Tasks", Roles: staff},
	{Path: "/notifications", Title: "Notifications"},
	{Path: "/leaves", Title: "Leaves", Roles: with(staff, companyRoles...)},
	{Path: "/training-reports", Title: "Training reports", Roles: with(admins, companyRoles...)},
}

// FindScreen returns the screen registered for path
func FindScreen(path string) (Screen, bool) {
	path = "/" + strings.Trim(path, "/")
	for _, s := range Screens {
		if s.Path == path {
			return s, true
		}
	}
	return Screen{}, false
}

// VisibleScreens returns the screens a role may open, for menu rendering
func VisibleScreens(role models.Role) []Screen {
	var result []Screen
	for _, s := range Screens {
		if len(s.Roles) == 0 || role.In(s.Roles) {
			result = append(result, s)
		}
	}
	return result
}
