package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"pricing-service/internal/service"
)

type fakeEvaluator struct {
	mu    sync.Mutex
	users []int
	runs  chan int
}

func (f *fakeEvaluator) EvaluateExpirationDiscounts(ctx context.Context, userID int) (*service.BatchResult, error) {
	f.mu.Lock()
	f.users = append(f.users, userID)
	f.mu.Unlock()
	select {
	case f.runs <- userID:
	default:
	}
	return &service.BatchResult{}, nil
}

type fakeTenants struct {
	ids []int
}

func (f *fakeTenants) ListUserIDs(ctx context.Context) ([]int, error) {
	return f.ids, nil
}

func TestRunEvaluatesEveryTenantImmediately(t *testing.T) {
	evaluator := &fakeEvaluator{runs: make(chan int, 8)}
	tenants := &fakeTenants{ids: []int{7, 9}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, evaluator, tenants, Config{IntervalSeconds: 3600})
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-evaluator.runs:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for first evaluation pass")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}

	evaluator.mu.Lock()
	defer evaluator.mu.Unlock()
	if len(evaluator.users) < 2 {
		t.Fatalf("expected both tenants evaluated, got %v", evaluator.users)
	}
}
