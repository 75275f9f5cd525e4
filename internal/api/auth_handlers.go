package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/pkg/client"
)

type loginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username  string `json:"username" validate:"notblank,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
}

// profileRequest covers the fields the access gate requires
type profileRequest struct {
	Rank                  string `json:"rank" validate:"notblank"`
	FirstName             string `json:"firstName" validate:"notblank"`
	LastName              string `json:"lastName" validate:"notblank"`
	Username              string `json:"username" validate:"notblank"`
	BirthDate             string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Email                 string `json:"email" validate:"required,email"`
	Phone                 string `json:"phone" validate:"notblank"`
	EmergencyContactName  string `json:"emergencyContactName" validate:"notblank"`
	EmergencyContactPhone string `json:"emergencyContactPhone" validate:"notblank"`
	Position              string `json:"position" validate:"notblank"`
	Education             string `json:"education" validate:"notblank"`
}

// sessionView is the browser's view of its session; the token stays server-side
type sessionView struct {
	Authenticated bool            `json:"authenticated"`
	Role          models.Role     `json:"role,omitempty"`
	User          *models.User    `json:"user,omitempty"`
	LoginAt       *time.Time      `json:"loginAt,omitempty"`
	MissingFields []string        `json:"missingFields,omitempty"`
	Screens       []access.Screen `json:"screens,omitempty"`
}

func newSessionView(sess *models.Session) sessionView {
	if !sess.IsAuthenticated() {
		return sessionView{}
	}
	loginAt := sess.LoginAt
	v := sessionView{
		Authenticated: true,
		Role:          sess.Role,
		User:          sess.User,
		LoginAt:       &loginAt,
		Screens:       access.VisibleScreens(sess.Role),
	}
	if !sess.Role.BypassesProfileCheck() {
		v.MissingFields = sess.User.MissingProfileFields()
	}
	return v
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	resp, err := s.academy.Login(r.Context(), client.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.respondUpstream(w, r, err, "Login failed")
		return
	}

	token := resp.BearerToken()
	user := resp.User
	if user == nil {
		user, err = s.academy.Me(client.ContextWithToken(r.Context(), token))
		if err != nil {
			slog.Warn("failed to load user after login", "error", err)
			user = nil
		}
	}

	sess, err := s.tokens.FromToken(token, user)
	if err != nil {
		slog.Warn("login token rejected", "error", err, "username", req.Username)
		respondError(w, http.StatusBadGateway, "Login failed")
		return
	}

	key := SessionKeyFromContext(r.Context())
	if err := s.sessions.Set(r.Context(), key, sess); err != nil {
		slog.Error("failed to store session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store session")
		return
	}

	slog.Info("user logged in",
		"username", req.Username,
		"role", sess.Role,
	)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session":  newSessionView(sess),
		"redirect": access.HomePath,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	user, err := s.academy.Register(r.Context(), client.RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		s.respondUpstream(w, r, err, "Registration failed")
		return
	}

	s.notify(r, notify.Success("Account created, please log in"))
	respondMessage(w, http.StatusCreated, user, "account created")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	key := SessionKeyFromContext(r.Context())
	if err := s.sessions.Clear(r.Context(), key); err != nil {
		slog.Error("failed to clear session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"redirect": access.LoginPath,
	})
}

// handleMe refreshes the cached user from the academy API
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	fresh, err := s.academy.Me(r.Context())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load profile")
		return
	}

	sess, err := s.replaceUser(r, fresh)
	if err != nil {
		slog.Error("failed to update session user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update session")
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	current := access.SessionFromContext(r.Context())
	if current == nil || current.User == nil || current.User.ID == 0 {
		respondError(w, http.StatusConflict, "profile is not loaded yet")
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	updated, err := s.academy.UpdateUser(r.Context(), current.User.ID, client.UserInput{
		Username:              req.Username,
		Email:                 req.Email,
		Phone:                 req.Phone,
		Rank:                  req.Rank,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		BirthDate:             req.BirthDate,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		Position:              req.Position,
		Education:             req.Education,
	})
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to update profile")
		return
	}

	sess, err := s.replaceUser(r, updated)
	if err != nil {
		slog.Error("failed to update session user", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update session")
		return
	}

	s.notify(r, notify.Success("Profile updated"))
	respondJSON(w, http.StatusOK, newSessionView(sess))
}

// replaceUser swaps the cached user of the request's session.
// Fields the API left empty keep their cached value.
func (s *Server) replaceUser(r *http.Request, fresh *models.User) (*models.Session, error) {
	if fresh == nil {
		return nil, errors.New("empty user")
	}
	key := SessionKeyFromContext(r.Context())
	return s.sessions.UpdateUser(r.Context(), key, func(u *models.User) {
		role := u.Role
		*u = *fresh
		if u.Role == "" {
			u.Role = role
		}
	})
}

func (s *Server) handleDrainNotices(w http.ResponseWriter, r *http.Request) {
	notices := s.notices.Drain(SessionKeyFromContext(r.Context()))
	if notices == nil {
		notices = []models.Notice{}
	}
	respondJSON(w, http.StatusOK, notices)
}

// Screen handlers

func (s *Server) handleListScreens(w http.ResponseWriter, r *http.Request) {
	sess := access.SessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, access.VisibleScreens(sess.Role))
}

// handleCheckScreen runs the gate for a navigation without guarding the
// response itself, so the browser learns where to redirect
func (s *Server) handleCheckScreen(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	screen, ok := access.FindScreen(path)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown screen")
		return
	}

	key, src := s.resolveSession(r)
	d := s.gate.Check(r.Context(), key, src, screen.Requirement())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"screen":        screen,
		"allowed":       d.Allowed,
		"reason":        d.Reason,
		"redirect":      d.Redirect,
		"missingFields": d.MissingFields,
		"notices":       s.notices.Drain(key),
	})
}
