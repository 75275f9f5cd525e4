package models

import "strings"

// User is the cached user record of the current session
type User struct {
	ID                    int64  `json:"id"`
	Username              string `json:"username"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	Rank                  string `json:"rank"`
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	BirthDate             string `json:"birthDate"`
	EmergencyContactName  string `json:"emergencyContactName"`
	EmergencyContactPhone string `json:"emergencyContactPhone"`
	Position              string `json:"position"`
	Education             string `json:"education"`
	AvatarURL             string `json:"avatarUrl,omitempty"`
	Role                  string `json:"role"`
	Active                bool   `json:"active"`
}

// RequiredProfileFields lists the profile fields every non-admin user must fill in
var RequiredProfileFields = []string{
	"rank",
	"firstName",
	"lastName",
	"username",
	"birthDate",
	"email",
	"phone",
	"emergencyContactName",
	"emergencyContactPhone",
	"position",
	"education",
}

func (u *User) profileField(name string) string {
	switch name {
	case "rank":
		return u.Rank
	case "firstName":
		return u.FirstName
	case "lastName":
		return u.LastName
	case "username":
		return u.Username
	case "birthDate":
		return u.BirthDate
	case "email":
		return u.Email
	case "phone":
		return u.Phone
	case "emergencyContactName":
		return u.EmergencyContactName
	case "emergencyContactPhone":
		return u.EmergencyContactPhone
	case "position":
		return u.Position
	case "education":
		return u.Education
	}
	return ""
}

// MissingProfileFields returns the required profile fields that are blank.
// A nil user is missing every field.
func (u *User) MissingProfileFields() []string {
	if u == nil {
		return append([]string(nil), RequiredProfileFields...)
	}
	var missing []string
	for _, name := range RequiredProfileFields {
		if strings.TrimSpace(u.profileField(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// FullName returns "First Last", falling back to the username
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
