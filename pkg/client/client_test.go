package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terra-clan/academy-console/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestBearerTokenFromContextWins(t *testing.T) {
	var got string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"id":7,"username":"alice"}}`))
	})
	c.token = "static"

	ctx := ContextWithToken(context.Background(), "from-ctx")
	user, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if got != "Bearer from-ctx" {
		t.Errorf("expected context token, got %q", got)
	}
	if user.ID != 7 || user.Username != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if got != "Bearer static" {
		t.Errorf("expected static token, got %q", got)
	}
}

func TestEnvelopeTolerance(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLen  int
		wantPage Page
	}{
		{
			name:     "full envelope",
			body:     `{"data":[{"id":1},{"id":2}],"total":12,"page":2,"pageSize":2,"totalPages":6}`,
			wantLen:  2,
			wantPage: Page{Total: 12, Page: 2, PageSize: 2, TotalPages: 6},
		},
		{
			name:     "bare array",
			body:     `[{"id":1},{"id":2},{"id":3}]`,
			wantLen:  3,
			wantPage: Page{Total: 3, Page: 1, PageSize: 3, TotalPages: 1},
		},
		{
			name:     "nested items",
			body:     `{"data":{"items":[{"id":1}],"total":5,"pageSize":1}}`,
			wantLen:  1,
			wantPage: Page{Total: 5, Page: 1, PageSize: 1, TotalPages: 5},
		},
		{
			name:     "null data",
			body:     `{"data":null,"message":"nothing"}`,
			wantLen:  0,
			wantPage: Page{Total: 0, Page: 1, PageSize: 0, TotalPages: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			users, page, err := c.ListUsers(context.Background(), ListOptions{})
			if err != nil {
				t.Fatalf("ListUsers failed: %v", err)
			}
			if len(users) != tt.wantLen {
				t.Errorf("expected %d users, got %d", tt.wantLen, len(users))
			}
			if page != tt.wantPage {
				t.Errorf("expected page %+v, got %+v", tt.wantPage, page)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"template name already used"}`))
	})

	_, err := c.CreateTemplate(context.Background(), models.Template{Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected APIError 409, got %v", err)
	}
	if msg := ErrorMessage(err, "fallback"); msg != "template name already used" {
		t.Errorf("unexpected message %q", msg)
	}
	if msg := ErrorMessage(errors.New("dial tcp: refused"), "fallback"); msg != "fallback" {
		t.Errorf("expected fallback, got %q", msg)
	}
}

func TestTemplateCRUDPaths(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	var lastBody models.Template

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &lastBody)
			}
		}
		w.Write([]byte(`{"data":{"id":42,"name":"Midterm","templateType":"COMPANY","sections":[]}}`))
	})

	ctx := context.Background()
	tmpl := models.Template{Name: "Midterm", TemplateType: models.TemplateCompany}
	created, err := c.CreateTemplate(ctx, tmpl)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if created.ID == nil || *created.ID != 42 {
		t.Errorf("expected id 42, got %v", created.ID)
	}
	if _, err := c.UpdateTemplate(ctx, 42, tmpl); err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}
	if err := c.DeleteTemplate(ctx, 42); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}

	want := []call{
		{"POST", "/api/admin/student-evaluation-templates"},
		{"PUT", "/api/admin/student-evaluation-templates/42"},
		{"DELETE", "/api/admin/student-evaluation-templates/42"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], calls[i])
		}
	}
	if lastBody.Name != "Midterm" {
		t.Errorf("expected body name Midterm, got %q", lastBody.Name)
	}
}

func TestUserStatusEndpoints(t *testing.T) {
	var seen []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	if err := c.DeactivateUser(ctx, 3); err != nil {
		t.Fatalf("DeactivateUser failed: %v", err)
	}
	if err := c.ActivateUser(ctx, 3); err != nil {
		t.Fatalf("ActivateUser failed: %v", err)
	}

	want := "DELETE /api/admin/users/deactivate/3,PATCH /api/admin/users/activate/3"
	if got := strings.Join(seen, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestResourceListQuery(t *testing.T) {
	var query string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":1,"title":"Clean barracks"}],"total":1}`))
	})

	tasks, page, err := c.Tasks().List(context.Background(), ListOptions{Page: 2, PageSize: 10, Search: "clean"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Clean barracks" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if page.Total != 1 {
		t.Errorf("expected total 1, got %d", page.Total)
	}
	if query != "page=2&pageSize=10&search=clean" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestUploadAvatarMultipart(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile failed: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "me.png" || string(data) != "png-bytes" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		w.Write([]byte(`{"data":{"id":3,"avatarUrl":"/files/me.png"}}`))
	})

	user, err := c.UploadAvatar(context.Background(), 3, "me.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadAvatar failed: %v", err)
	}
	if user.AvatarURL != "/files/me.png" {
		t.Errorf("unexpected avatar url %q", user.AvatarURL)
	}
}

func TestDownloadEvaluationTemplate(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="evaluations.xlsx"`)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write([]byte("xlsx"))
	})

	dl, err := c.DownloadEvaluationTemplate(context.Background())
	if err != nil {
		t.Fatalf("DownloadEvaluationTemplate failed: %v", err)
	}
	defer dl.Body.Close()

	data, _ := io.ReadAll(dl.Body)
	if dl.Filename != "evaluations.xlsx" || string(data) != "xlsx" {
		t.Errorf("unexpected download %s %q", dl.Filename, data)
	}
}
