package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCheckAll(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Register("drafts", CheckerFunc(func(ctx context.Context) error { return nil }))
	r.Register("upstream", CheckerFunc(func(ctx context.Context) error { return errors.New("down") }))

	if names := r.List(); len(names) != 2 || names[0] != "drafts" {
		t.Fatalf("List() = %v", names)
	}

	results := r.CheckAll(context.Background())
	if results["drafts"] != nil {
		t.Errorf("drafts: %v", results["drafts"])
	}
	if results["upstream"] == nil {
		t.Error("upstream should fail")
	}
	if Healthy(results) {
		t.Error("Healthy() = true with a failing check")
	}

	r.Unregister("upstream")
	if !Healthy(r.CheckAll(context.Background())) {
		t.Error("Healthy() = false after removing the failing check")
	}
}

func TestCheckAllTimeout(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	r.Register("slow", CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := r.CheckAll(context.Background())
	if !errors.Is(results["slow"], context.DeadlineExceeded) {
		t.Errorf("slow: %v, want deadline exceeded", results["slow"])
	}
}
