package client

import (
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

// LoginRequest holds login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/login
type LoginResponse struct {
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	User         *models.User `json:"user,omitempty"`
}

// BearerToken returns whichever token field the API filled in
func (r *LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// RegisterRequest holds self-registration data
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// UserInput is the body of user create/update calls
type UserInput struct {
	Username              string `json:"username,omitempty"`
	Email                 string `json:"email,omitempty"`
	Password              string `json:"password,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Rank                  string `json:"rank,omitempty"`
	FirstName             string `json:"firstName,omitempty"`
	LastName              string `json:"lastName,omitempty"`
	BirthDate             string `json:"birthDate,omitempty"`
	EmergencyContactName  string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty"`
	Position              string `json:"position,omitempty"`
	Education             string `json:"education,omitempty"`
	Role                  string `json:"role,omitempty"`
}

// EvaluationScore is the score given to one question
type EvaluationScore struct {
	SectionOrder int    `json:"sectionOrder"`
	QuestionID   int    `json:"questionId"`
	Score        int    `json:"score"`
	Comment      string `json:"comment,omitempty"`
}

// StudentEvaluation is a filled-in evaluation of a student
type StudentEvaluation struct {
	ID          int64             `json:"id"`
	TemplateID  int64             `json:"templateId"`
	StudentID   int64             `json:"studentId"`
	StudentName string            `json:"studentName,omitempty"`
	EvaluatorID int64             `json:"evaluatorId,omitempty"`
	Scores      []EvaluationScore `json:"scores,omitempty"`
	TotalScore  float64           `json:"totalScore"`
	Comment     string            `json:"comment,omitempty"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
}

// Evaluation is a service evaluation row as imported from spreadsheets
type Evaluation struct {
	ID        int64      `json:"id"`
	SoldierID string     `json:"soldierId"`
	FullName  string     `json:"fullName"`
	Company   string     `json:"company,omitempty"`
	Score     float64    `json:"score"`
	Grade     string     `json:"grade,omitempty"`
	Period    string     `json:"period,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ImportResult summarizes an evaluation import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// SoldierIntake is a recruit intake record
type SoldierIntake struct {
	ID          int64      `json:"id"`
	CitizenID   string     `json:"citizenId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Battalion   int        `json:"battalion,omitempty"`
	Company     int        `json:"company,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Province    string     `json:"province,omitempty"`
	Education   string     `json:"education,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// IntakeSummary counts intake records per group
type IntakeSummary struct {
	Total       int            `json:"total"`
	ByBattalion map[string]int `json:"byBattalion,omitempty"`
	ByCompany   map[string]int `json:"byCompany,omitempty"`
	ByEducation map[string]int `json:"byEducation,omitempty"`
}

// IntakeStatus tells whether the public intake form accepts submissions
type IntakeStatus struct {
	Open bool `json:"open"`
}

// Task is a work item assigned to staff
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  int64      `json:"assigneeId,omitempty"`
	Status      string     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Notification is a message shown in the notification center
type Notification struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Read       bool       `json:"read"`
	TargetRole string     `json:"targetRole,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Leave is a leave request
type Leave struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Reason    string `json:"reason"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status,omitempty"`
}

// TrainingReport is a periodic training report
type TrainingReport struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Week      int    `json:"week,omitempty"`
	Company   string `json:"company,omitempty"`
	Content   string `json:"content,omitempty"`
	CreatedBy int64  `json:"createdBy,omitempty"`
}
