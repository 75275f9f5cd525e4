package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/internal/builder"
	"github.com/terra-clan/academy-console/internal/config"
	"github.com/terra-clan/academy-console/internal/health"
	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/internal/session"
	"github.com/terra-clan/academy-console/internal/storage"
	"github.com/terra-clan/academy-console/pkg/client"
)

// fakeAcademy is an in-process stand-in for the academy REST API
type fakeAcademy struct {
	mu        sync.Mutex
	users     map[string]models.User
	created   []models.Template
	lastAuth  string
	rejectAll bool
}

func newFakeAcademy() *fakeAcademy {
	return &fakeAcademy{
		users: map[string]models.User{
			"admin": {
				ID: 1, Username: "admin", Role: "ADMIN",
			},
			"student": {
				ID: 2, Username: "student", Email: "s@example.com", Phone: "1", Rank: "Private",
				FirstName: "S", LastName: "T", BirthDate: "2000-01-01", EmergencyContactName: "M",
				EmergencyContactPhone: "2", Position: "Cadet", Education: "School", Role: "student",
			},
			"teacher": {
				ID: 3, Username: "teacher", Role: "TEACHER",
			},
		},
	}
}

func (f *fakeAcademy) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		u, ok := f.users[req.Username]
		f.mu.Unlock()
		if !ok || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"Invalid username or password"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"token": "tok-" + u.Username, "user": u},
		})
	})

	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		io.WriteString(w, `{"data":{"content":[{"id":1,"username":"admin"}]},"total":41,"page":2,"pageSize":20,"totalPages":3}`)
	})

	mux.HandleFunc("/api/admin/student-evaluation-templates", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		if r.Method == http.MethodPost {
			var tmpl models.Template
			json.NewDecoder(r.Body).Decode(&tmpl)
			f.mu.Lock()
			f.created = append(f.created, tmpl)
			f.mu.Unlock()
			id := int64(55)
			tmpl.ID = &id
			json.NewEncoder(w).Encode(map[string]interface{}{"data": tmpl, "message": "created"})
			return
		}
		io.WriteString(w, `[]`)
	})

	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		io.WriteString(w, `{"data":[{"id":1,"title":"Clean rifles"}]}`)
	})

	mux.HandleFunc("/api/public/soldier-intake/status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"open":true}}`)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Logf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return mux
}

func (f *fakeAcademy) authorized(w http.ResponseWriter, r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	if f.rejectAll || !strings.HasPrefix(f.lastAuth, "Bearer tok-") {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Token expired"}`)
		return false
	}
	return true
}

type testEnv struct {
	academy  *fakeAcademy
	server   *httptest.Server
	http     *http.Client
	sessions *session.Manager
	notices  *notify.Center
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	academy := newFakeAcademy()
	upstream := httptest.NewServer(academy.handler(t))
	t.Cleanup(upstream.Close)

	api := client.NewClient(upstream.URL, client.WithTimeout(5*time.Second))
	notices := notify.NewCenter(time.Minute)
	sessions := session.NewManager(session.NewMemoryStore())
	repo := storage.NewMemoryRepository()

	registry := health.NewRegistry(time.Second)
	registry.Register("upstream", api)
	registry.Register("drafts", repo)

	srv := NewServer(config.ServerConfig{Port: 8080}, Deps{
		Sessions: sessions,
		Gate:     access.NewGate(notices),
		Notices:  notices,
		Builder:  builder.NewService(repo, api, notices),
		Academy:  api,
		Health:   registry,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	httpClient := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{academy: academy, server: ts, http: httpClient, sessions: sessions, notices: notices}
}

type testResponse struct {
	Status   int
	Header   http.Header
	Envelope struct {
		Data       json.RawMessage   `json:"data"`
		Message    string            `json:"message"`
		Total      *int              `json:"total"`
		Page       *int              `json:"page"`
		PageSize   *int              `json:"pageSize"`
		TotalPages *int              `json:"totalPages"`
		Errors     map[string]string `json:"errors"`
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) testResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := testResponse{Status: resp.StatusCode, Header: resp.Header}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out.Envelope); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, path, raw, err)
		}
	}
	return out
}

func (e *testEnv) login(t *testing.T, username string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": "secret"})
	if resp.Status != http.StatusOK {
		t.Fatalf("login %s: status %d %s", username, resp.Status, resp.Envelope.Message)
	}
}

func decodeData(t *testing.T, resp testResponse, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Envelope.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", resp.Envelope.Data, err)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, http.MethodGet, "/health", nil); resp.Status != http.StatusOK {
		t.Errorf("/health status = %d", resp.Status)
	}

	resp := env.do(t, http.MethodGet, "/ready", nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("/ready status = %d: %s", resp.Status, resp.Envelope.Data)
	}
	var checks map[string]string
	decodeData(t, resp, &checks)
	if checks["upstream"] != "ok" || checks["drafts"] != "ok" {
		t.Errorf("checks = %v", checks)
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "  "})
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
	if _, ok := resp.Envelope.Errors["username"]; !ok {
		t.Errorf("errors = %v, want username", resp.Envelope.Errors)
	}
	if _, ok := resp.Envelope.Errors["password"]; !ok {
		t.Errorf("errors = %v, want password", resp.Envelope.Errors)
	}

	resp = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}
	if resp.Envelope.Message != "Invalid username or password" {
		t.Errorf("message = %q, want the server message", resp.Envelope.Message)
	}
}

func TestGateOnConsoleRoutes(t *testing.T) {
	env := newTestEnv(t)

	// no session: JSON callers get 401, page loads get redirected
	if resp := env.do(t, http.MethodGet, "/console/users", nil); resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/console/users", nil)
	resp, err := env.http.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != access.LoginPath {
		t.Fatalf("page request = %d %q, want 303 to /login", resp.StatusCode, resp.Header.Get("Location"))
	}

	// the denial queued a notice for the session
	notices := env.do(t, http.MethodGet, "/notices", nil)
	var list []models.Notice
	decodeData(t, notices, &list)
	if len(list) == 0 || list[0].Level != models.NoticeWarning {
		t.Errorf("notices = %+v, want a login warning", list)
	}

	// a complete student profile still lacks the role
	env.login(t, "student")
	denied := env.do(t, http.MethodGet, "/console/users", nil)
	if denied.Status != http.StatusForbidden {
		t.Fatalf("student status = %d, want 403", denied.Status)
	}
	var d access.Decision
	decodeData(t, denied, &d)
	if d.Redirect != access.HomePath || d.Reason != access.ReasonRoleDenied {
		t.Errorf("decision = %+v", d)
	}
}

func TestAdminBypassesProfileCheck(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	resp := env.do(t, http.MethodGet, "/console/users?page=2&pageSize=20", nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Status, resp.Envelope.Message)
	}
	if resp.Envelope.Total == nil || *resp.Envelope.Total != 41 || *resp.Envelope.TotalPages != 3 {
		t.Errorf("paging = %v/%v", resp.Envelope.Total, resp.Envelope.TotalPages)
	}
	env.academy.mu.Lock()
	auth := env.academy.lastAuth
	env.academy.mu.Unlock()
	if auth != "Bearer tok-admin" {
		t.Errorf("upstream Authorization = %q", auth)
	}
}

func TestIncompleteProfileRedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "teacher")

	resp := env.do(t, http.MethodGet, "/screens/tasks", nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	var check struct {
		Allowed       bool            `json:"allowed"`
		Redirect      string          `json:"redirect"`
		MissingFields []string        `json:"missingFields"`
		Notices       []models.Notice `json:"notices"`
	}
	decodeData(t, resp, &check)
	if check.Allowed || check.Redirect != access.HomePath {
		t.Fatalf("check = %+v", check)
	}
	if len(check.MissingFields) == 0 || check.MissingFields[0] != "rank" {
		t.Errorf("missing = %v", check.MissingFields)
	}
	if len(check.Notices) != 1 {
		t.Errorf("notices = %+v", check.Notices)
	}

	// home stays reachable so the profile can be completed
	resp = env.do(t, http.MethodGet, "/screens/home", nil)
	decodeData(t, resp, &check)
	if !check.Allowed {
		t.Errorf("home should be allowed with an incomplete profile")
	}

	if resp := env.do(t, http.MethodGet, "/screens/nowhere", nil); resp.Status != http.StatusNotFound {
		t.Errorf("unknown screen status = %d", resp.Status)
	}
}

func TestBuilderMidtermFlow(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	resp := env.do(t, http.MethodPost, "/console/builder/drafts", map[string]string{"mode": "create"})
	if resp.Status != http.StatusCreated {
		t.Fatalf("open status = %d: %s", resp.Status, resp.Envelope.Message)
	}
	var draft models.Draft
	decodeData(t, resp, &draft)

	actions := []builder.Action{
		builder.SetName("Midterm"),
		builder.AddSection(),
		builder.SetSectionTitle(0, "Discipline"),
		builder.AddQuestion(0),
		builder.AddQuestion(0),
		builder.SetQuestionMaxScore(0, 0, 5),
		builder.SetQuestionMaxScore(0, 1, "5"),
	}
	for _, a := range actions {
		resp := env.do(t, http.MethodPost, "/console/builder/drafts/"+draft.ID+"/actions", a)
		if resp.Status != http.StatusOK {
			t.Fatalf("action %s status = %d: %s", a.Type, resp.Status, resp.Envelope.Message)
		}
	}

	bad := env.do(t, http.MethodPost, "/console/builder/drafts/"+draft.ID+"/actions", builder.RemoveSection(4))
	if bad.Status != http.StatusBadRequest {
		t.Errorf("out of range action status = %d, want 400", bad.Status)
	}

	resp = env.do(t, http.MethodPost, "/console/builder/drafts/"+draft.ID+"/submit", nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("submit status = %d: %s", resp.Status, resp.Envelope.Message)
	}

	env.academy.mu.Lock()
	created := env.academy.created
	env.academy.mu.Unlock()
	if len(created) != 1 {
		t.Fatalf("upstream received %d POSTs, want 1", len(created))
	}
	s := created[0].Sections
	if len(s) != 1 || s[0].SectionOrder != 1 || s[0].Title != "Discipline" {
		t.Fatalf("sections = %+v", s)
	}
	if len(s[0].Questions) != 2 || s[0].Questions[0].ID != 1 || s[0].Questions[1].ID != 2 {
		t.Errorf("questions = %+v", s[0].Questions)
	}

	if resp := env.do(t, http.MethodGet, "/console/builder/drafts/"+draft.ID, nil); resp.Status != http.StatusNotFound {
		t.Errorf("closed draft status = %d, want 404", resp.Status)
	}
}

func TestBuilderSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	resp := env.do(t, http.MethodPost, "/console/builder/drafts", map[string]string{})
	var draft models.Draft
	decodeData(t, resp, &draft)

	resp = env.do(t, http.MethodPost, "/console/builder/drafts/"+draft.ID+"/submit", nil)
	if resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.Status)
	}
	if _, ok := resp.Envelope.Errors["name"]; !ok {
		t.Errorf("errors = %v", resp.Envelope.Errors)
	}
	decodeData(t, resp, &draft)
	if draft.State != models.EditorOpen {
		t.Errorf("state = %s, want open", draft.State)
	}
}

func TestUpstreamUnauthorizedEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	env.academy.mu.Lock()
	env.academy.rejectAll = true
	env.academy.mu.Unlock()

	resp := env.do(t, http.MethodGet, "/console/tasks", nil)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}
	if resp.Envelope.Message != "Token expired" {
		t.Errorf("message = %q", resp.Envelope.Message)
	}

	// the session is gone, so the gate now stops the request itself
	resp = env.do(t, http.MethodGet, "/console/tasks", nil)
	var d access.Decision
	decodeData(t, resp, &d)
	if d.Reason != access.ReasonNoToken {
		t.Errorf("reason = %q, want no_token", d.Reason)
	}
}

func TestLogoutAndWebsocket(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/session"
	header := http.Header{}
	for _, c := range env.http.Jar.Cookies(mustParse(t, env.server.URL)) {
		header.Add("Cookie", c.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg SessionMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read connected: %v", err)
	}
	if msg.Type != messageConnected || msg.Session == nil || !msg.Session.Authenticated {
		t.Fatalf("first message = %+v", msg)
	}

	if resp := env.do(t, http.MethodPost, "/auth/logout", nil); resp.Status != http.StatusOK {
		t.Fatalf("logout status = %d", resp.Status)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read auth change: %v", err)
	}
	if msg.Type != messageAuthChanged || msg.Event != string(session.EventLogout) {
		t.Errorf("message = %+v, want logout", msg)
	}
}

func TestListResourceAndIntakeStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin")

	resp := env.do(t, http.MethodGet, "/console/tasks", nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	var tasks []client.Task
	decodeData(t, resp, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "Clean rifles" {
		t.Errorf("tasks = %+v", tasks)
	}

	resp = env.do(t, http.MethodGet, "/console/soldier-intake/status", nil)
	var status client.IntakeStatus
	decodeData(t, resp, &status)
	if !status.Open {
		t.Error("expected open intake")
	}

	if resp := env.do(t, http.MethodPatch, "/console/soldier-intake/status", map[string]string{}); resp.Status != http.StatusBadRequest {
		t.Errorf("missing open flag status = %d, want 400", resp.Status)
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
