package session

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/terra-clan/academy-console/internal/models"
)

func TestManagerBroadcastsChanges(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	var events []EventType
	cancel := m.OnChange("k1", func(ev Event) { events = append(events, ev.Type) })
	m.OnChange("k2", func(ev Event) { t.Errorf("listener of another key got %s", ev.Type) })

	sess := &models.Session{Token: "tok", Role: models.RoleTeacher, User: &models.User{Username: "t1"}}
	if err := m.Set(ctx, "k1", sess); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	updated, err := m.UpdateUser(ctx, "k1", func(u *models.User) {
		u.Rank = "Sergeant"
		u.Role = "form-creator"
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Role != models.RoleFormCreator {
		t.Errorf("expected role re-derived from user, got %s", updated.Role)
	}

	got, err := m.Get(ctx, "k1")
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.User.Rank != "Sergeant" {
		t.Errorf("expected cached user to be updated, got %+v", got.User)
	}

	if err := m.Clear(ctx, "k1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := m.Get(ctx, "k1"); got != nil {
		t.Errorf("expected no session after clear, got %+v", got)
	}

	cancel()
	m.Set(ctx, "k1", sess)

	want := []EventType{EventLogin, EventUserUpdated, EventLogout}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if s, err := store.Load(ctx, "missing"); err != nil || s != nil {
		t.Fatalf("expected (nil, nil) for unknown key, got (%v, %v)", s, err)
	}

	sess := &models.Session{Token: "tok", Role: models.RoleAdmin}
	if err := store.Save(ctx, "abc-123", sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, "abc-123")
	if err != nil || loaded == nil || loaded.Token != "tok" || loaded.Role != models.RoleAdmin {
		t.Fatalf("unexpected load result (%+v, %v)", loaded, err)
	}

	if err := store.Save(ctx, "../escape", sess); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}

	if err := store.Delete(ctx, "abc-123"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "abc-123"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestTokenDecoderRole(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   models.Role
	}{
		{name: "role claim", claims: jwt.MapClaims{"role": "admin"}, want: models.RoleAdmin},
		{name: "roles array", claims: jwt.MapClaims{"roles": []interface{}{"ROLE_TEACHER"}}, want: models.RoleTeacher},
		{name: "company role", claims: jwt.MapClaims{"authorities": []interface{}{"bat2_com3"}}, want: models.CompanyRole(2, 3)},
		{name: "no role", claims: jwt.MapClaims{"sub": "7"}, want: models.RoleUnknown},
	}

	d := NewTokenDecoder("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := d.Role(signed(t, "whatever", tt.claims))
			if err != nil {
				t.Fatalf("Role failed: %v", err)
			}
			if role != tt.want {
				t.Errorf("expected %q, got %q", tt.want, role)
			}
		})
	}
}

func TestTokenDecoderVerifiesWithSecret(t *testing.T) {
	d := NewTokenDecoder("secret")

	if _, err := d.Role(signed(t, "secret", jwt.MapClaims{"role": "STUDENT"})); err != nil {
		t.Errorf("expected valid token, got %v", err)
	}
	if _, err := d.Role(signed(t, "other", jwt.MapClaims{"role": "STUDENT"})); err == nil {
		t.Error("expected signature error")
	}
}

func TestFromTokenPrefersUserRole(t *testing.T) {
	d := NewTokenDecoder("")
	tok := signed(t, "k", jwt.MapClaims{"role": "STUDENT"})

	s, err := d.FromToken(tok, &models.User{Role: "owner"})
	if err != nil {
		t.Fatalf("FromToken failed: %v", err)
	}
	if s.Role != models.RoleOwner {
		t.Errorf("expected OWNER from user record, got %s", s.Role)
	}

	s, err = d.FromToken(tok, &models.User{})
	if err != nil {
		t.Fatalf("FromToken failed: %v", err)
	}
	if s.Role != models.RoleStudent {
		t.Errorf("expected STUDENT from token, got %s", s.Role)
	}

	if _, err := d.FromToken("  ", nil); err != ErrEmptyToken {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
}
