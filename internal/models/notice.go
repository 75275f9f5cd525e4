package models

import "time"

// NoticeLevel is the severity of a transient notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, auto-dismissing message shown to the user
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	Fields    []string    `json:"fields,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// IsExpired reports whether the notice should no longer be shown
func (n *Notice) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}
