package models

import "time"

// Session is the client-held record of the authenticated user.
// A session without a token is not authenticated.
type Session struct {
	Token     string    `json:"token"`
	User      *User     `json:"user,omitempty"`
	Role      Role      `json:"role"`
	LoginAt   time.Time `json:"loginAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAuthenticated reports whether the session carries a token
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return &c
}
