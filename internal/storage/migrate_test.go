package storage

import (
	"testing"
	"testing/fstest"

	"github.com/terra-clan/academy-console/migrations"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_notices.sql":        {Data: []byte("SELECT 1;")},
		"001_builder_drafts.sql": {Data: []byte("SELECT 1;")},
		"003_later.sql":          {Data: []byte("SELECT 1;")},
		"README.md":              {Data: []byte("docs")},
		"old/004_nested.sql":     {Data: []byte("SELECT 1;")},
	}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{
			name:    "fresh database",
			applied: map[string]bool{},
			want:    []string{"001_builder_drafts.sql", "002_notices.sql", "003_later.sql"},
		},
		{
			name:    "partially applied",
			applied: map[string]bool{"001_builder_drafts.sql": true, "003_later.sql": true},
			want:    []string{"002_notices.sql"},
		},
		{
			name: "up to date",
			applied: map[string]bool{
				"001_builder_drafts.sql": true,
				"002_notices.sql":        true,
				"003_later.sql":          true,
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, tt.applied)
			if err != nil {
				t.Fatalf("pendingMigrations failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pending[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := pendingMigrations(migrations.FS, nil)
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}
	if len(got) == 0 || got[0] != "001_builder_drafts.sql" {
		t.Errorf("expected embedded 001_builder_drafts.sql first, got %v", got)
	}
}
