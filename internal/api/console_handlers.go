package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/pkg/client"
)

const maxUploadSize = 10 << 20

type userRequest struct {
	Username              string `json:"username" validate:"notblank,max=64"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"omitempty,min=6"`
	Phone                 string `json:"phone" validate:"max=32"`
	Rank                  string `json:"rank" validate:"max=64"`
	FirstName             string `json:"firstName" validate:"max=100"`
	LastName              string `json:"lastName" validate:"max=100"`
	BirthDate             string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	EmergencyContactName  string `json:"emergencyContactName" validate:"max=100"`
	EmergencyContactPhone string `json:"emergencyContactPhone" validate:"max=32"`
	Position              string `json:"position" validate:"max=100"`
	Education             string `json:"education" validate:"max=100"`
	Role                  string `json:"role" validate:"required,role"`
}

func (u userRequest) input() client.UserInput {
	return client.UserInput{
		Username:              u.Username,
		Email:                 u.Email,
		Password:              u.Password,
		Phone:                 u.Phone,
		Rank:                  u.Rank,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		BirthDate:             u.BirthDate,
		EmergencyContactName:  u.EmergencyContactName,
		EmergencyContactPhone: u.EmergencyContactPhone,
		Position:              u.Position,
		Education:             u.Education,
		Role:                  models.ParseRole(u.Role).String(),
	}
}

type intakeStatusRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// User handlers

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, page, err := s.academy.ListUsers(r.Context(), listOptions(r))
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load users")
		return
	}
	respondList(w, users, page)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}
	if req.Password == "" {
		s.respondBadRequest(w, r, &requestError{
			message: "password is required",
			fields:  map[string]string{"password": "password is required"},
		})
		return
	}

	user, err := s.academy.CreateUser(r.Context(), req.input())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to create user")
		return
	}

	s.notify(r, notify.Success("User created"))
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	user, err := s.academy.GetUser(r.Context(), id)
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	user, err := s.academy.UpdateUser(r.Context(), id, req.input())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to update user")
		return
	}

	s.refreshSelf(r, user)
	s.notify(r, notify.Success("User updated"))
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, true)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserActive(w, r, false)
}

func (s *Server) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	call, msg, fallback := s.academy.DeactivateUser, "User deactivated", "Failed to deactivate user"
	if active {
		call, msg, fallback = s.academy.ActivateUser, "User activated", "Failed to activate user"
	}

	if err := call(r.Context(), id); err != nil {
		s.respondUpstream(w, r, err, fallback)
		return
	}

	s.notify(r, notify.Success(msg))
	respondMessage(w, http.StatusOK, map[string]interface{}{"id": id, "active": active}, msg)
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	file, filename, err := formFile(w, r, "file")
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}
	defer file.Close()

	user, err := s.academy.UploadAvatar(r.Context(), id, filename, file)
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to upload avatar")
		return
	}

	s.refreshSelf(r, user)
	respondJSON(w, http.StatusOK, user)
}

// refreshSelf updates the cached user when an admin edits their own record
func (s *Server) refreshSelf(r *http.Request, user *models.User) {
	sess := access.SessionFromContext(r.Context())
	if sess == nil || sess.User == nil || user == nil || sess.User.ID != user.ID {
		return
	}
	if _, err := s.replaceUser(r, user); err != nil {
		slog.Warn("failed to refresh cached user", "error", err)
	}
}

// Evaluation handlers

func (s *Server) handleListStudentEvaluations(w http.ResponseWriter, r *http.Request) {
	evals, page, err := s.academy.ListStudentEvaluations(r.Context(), listOptions(r))
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load evaluations")
		return
	}
	respondList(w, evals, page)
}

func (s *Server) handleDeleteStudentEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	if err := s.academy.DeleteStudentEvaluation(r.Context(), id); err != nil {
		s.respondUpstream(w, r, err, "Failed to delete evaluation")
		return
	}

	s.notify(r, notify.Success("Evaluation deleted"))
	respondMessage(w, http.StatusOK, nil, "evaluation deleted")
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	evals, page, err := s.academy.ListEvaluations(r.Context(), listOptions(r))
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load evaluations")
		return
	}
	respondList(w, evals, page)
}

func (s *Server) handleImportEvaluations(w http.ResponseWriter, r *http.Request) {
	file, filename, err := formFile(w, r, "file")
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.academy.ImportEvaluations(r.Context(), filename, file)
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to import evaluations")
		return
	}

	slog.Info("evaluations imported",
		"file", filename,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	s.notify(r, notify.Success("Evaluations imported"))
	respondMessage(w, http.StatusOK, result, result.Message)
}

func (s *Server) handleDownloadEvaluationTemplate(w http.ResponseWriter, r *http.Request) {
	dl, err := s.academy.DownloadEvaluationTemplate(r.Context())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to download template")
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil {
		slog.Warn("template download interrupted", "error", err)
	}
}

// Soldier intake handlers

func (s *Server) handleListIntakes(w http.ResponseWriter, r *http.Request) {
	intakes, page, err := s.academy.ListSoldierIntakes(r.Context(), listOptions(r))
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load intake records")
		return
	}
	respondList(w, intakes, page)
}

func (s *Server) handleIntakeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.academy.SoldierIntakeSummary(r.Context())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load intake summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleIntakeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.academy.PublicIntakeStatus(r.Context())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load intake status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleSetIntakeStatus(w http.ResponseWriter, r *http.Request) {
	var req intakeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	status, err := s.academy.SetIntakeStatus(r.Context(), *req.Open)
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to update intake status")
		return
	}

	msg := "Intake closed"
	if status.Open {
		msg = "Intake opened"
	}
	s.notify(r, notify.Success(msg))
	respondJSON(w, http.StatusOK, status)
}

// listResource serves the list endpoint of a generic academy resource
func listResource[T any](s *Server, resource func() *client.Resource[T], fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, page, err := resource().List(r.Context(), listOptions(r))
		if err != nil {
			s.respondUpstream(w, r, err, fallback)
			return
		}
		if items == nil {
			items = []T{}
		}
		respondList(w, items, page)
	}
}

// formFile reads one uploaded file from a multipart form
func formFile(w http.ResponseWriter, r *http.Request, field string) (multipartFile, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", &requestError{message: "invalid upload"}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", &requestError{
				message: "file is required",
				fields:  map[string]string{field: "file is required"},
			}
		}
		return nil, "", &requestError{message: "invalid upload"}
	}
	return file, header.Filename, nil
}

type multipartFile interface {
	io.Reader
	io.Closer
}
