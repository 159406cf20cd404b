package tenant

import (
	"context"
	"sync"
	"testing"
)

func TestContext_RoundTrip(t *testing.T) {
	ctx := With(context.Background(), "t1")
	got, err := From(ctx)
	if err != nil || got != "t1" {
		t.Fatalf("From = %q, %v", got, err)
	}
}

func TestContext_AbsentIsError(t *testing.T) {
	if _, err := From(context.Background()); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
}

func TestContext_IsolatedAcrossConcurrentRequests(t *testing.T) {
	// Each simulated request derives its own context; a tenant bound in one
	// must never leak into another running concurrently.
	tenants := []string{"t1", "t2", "t3", "t4"}

	var wg sync.WaitGroup
	for _, id := range tenants {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			ctx := With(context.Background(), id)
			for i := 0; i < 1000; i++ {
				got, err := From(ctx)
				if err != nil || got != id {
					t.Errorf("tenant leaked: got %q, want %q (err: %v)", got, id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()
}
