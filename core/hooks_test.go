package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestAfterCommitHooks_RunConcurrentlyExactlyOnce(t *testing.T) {
	store := &fakeDatastore{}
	scope := newTestScope(t, store)

	const hookCount = 3
	var started sync.WaitGroup
	started.Add(hookCount)
	release := make(chan struct{})
	var ran int32

	go func() {
		// Releases the hooks only once every one of them has started,
		// proving they were launched without sequential blocking.
		started.Wait()
		close(release)
	}()

	for i := 0; i < hookCount; i++ {
		if err := scope.RegisterAfterCommit(HookRegistration{
			Listener: func(context.Context, any) error {
				started.Done()
				<-release
				atomic.AddInt32(&ran, 1)
				return nil
			},
		}); err != nil {
			t.Fatalf("register hook %d: %v", i, err)
		}
	}

	if err := scope.Add(&testEntity{id: "a"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := scope.Commit(context.Background(), CommitOptions{}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := atomic.LoadInt32(&ran); got != hookCount {
		t.Fatalf("expected %d hook runs, got %d", hookCount, got)
	}
	if scope.HookCount() != 0 {
		t.Fatalf("expected empty hook registry after commit, got %d", scope.HookCount())
	}
}

func TestAfterCommitHooks_FailureClearsRegistryAndReRaises(t *testing.T) {
	store := &fakeDatastore{}
	scope := newTestScope(t, store)
	cause := errors.New("webhook unreachable")
	siblingRan := false

	if err := scope.RegisterAfterCommit(HookRegistration{
		Listener: func(context.Context, any) error { return cause },
	}); err != nil {
		t.Fatalf("register failing hook: %v", err)
	}
	if err := scope.RegisterAfterCommit(HookRegistration{
		Listener: func(context.Context, any) error {
			siblingRan = true
			return nil
		},
	}); err != nil {
		t.Fatalf("register sibling hook: %v", err)
	}
	if err := scope.Add(&testEntity{id: "a"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := scope.Commit(context.Background(), CommitOptions{})
	if err == nil {
		t.Fatalf("expected hook failure to surface")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected hook cause to stay reachable, got %v", err)
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != ScopeErrorHook {
		t.Fatalf("expected %q text code, got %q", ScopeErrorHook, rich.TextCode)
	}

	if !siblingRan {
		t.Fatalf("sibling hooks must settle even when one fails")
	}
	if store.commits != 1 {
		t.Fatalf("hook failure must not undo the commit, got %d commits", store.commits)
	}
	if scope.HookCount() != 0 {
		t.Fatalf("hook registry must be cleared even on hook failure, got %d", scope.HookCount())
	}
}

func TestAfterCommitHooks_ReceiveRegisteredData(t *testing.T) {
	store := &fakeDatastore{}
	scope := newTestScope(t, store)
	var got any

	if err := scope.RegisterAfterCommit(HookRegistration{
		Listener: func(_ context.Context, data any) error {
			got = data
			return nil
		},
		Data: "invoice-42",
	}); err != nil {
		t.Fatalf("register hook: %v", err)
	}
	if err := scope.Commit(context.Background(), CommitOptions{}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got != "invoice-42" {
		t.Fatalf("expected hook data passthrough, got %v", got)
	}
}

func TestRegisterAfterCommit_ValidatesListenerAndType(t *testing.T) {
	scope := newTestScope(t, &fakeDatastore{})

	if err := scope.RegisterAfterCommit(HookRegistration{}); err == nil {
		t.Fatalf("expected validation error for nil listener")
	}
	err := scope.RegisterAfterCommit(HookRegistration{
		Type:     HookType("before_commit"),
		Listener: func(context.Context, any) error { return nil },
	})
	if err == nil {
		t.Fatalf("expected usage error for unsupported hook type")
	}
}

func TestResetAfterCommit_ClearsRegistry(t *testing.T) {
	scope := newTestScope(t, &fakeDatastore{})

	for i := 0; i < 2; i++ {
		if err := scope.RegisterAfterCommit(HookRegistration{
			Listener: func(context.Context, any) error { return nil },
		}); err != nil {
			t.Fatalf("register hook %d: %v", i, err)
		}
	}
	if scope.HookCount() != 2 {
		t.Fatalf("expected 2 hooks, got %d", scope.HookCount())
	}
	scope.ResetAfterCommit()
	if scope.HookCount() != 0 {
		t.Fatalf("expected cleared registry, got %d", scope.HookCount())
	}
}
