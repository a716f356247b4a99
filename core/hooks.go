package core

import (
	"context"
	"errors"
	"sync"
)

// RegisterAfterCommit appends a hook that runs once after the next
// successful commit. Hooks registered before a failing commit never
// execute but stay registered.
func (s *TransactionScope) RegisterAfterCommit(reg HookRegistration) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if reg.Listener == nil {
		return usageValidationError("listener", "hook listener is required")
	}
	if reg.Type == "" {
		reg.Type = HookAfterCommit
	}
	if reg.Type != HookAfterCommit {
		return usageError("core: unsupported hook type " + string(reg.Type))
	}
	s.hooks = append(s.hooks, reg)
	return nil
}

// ResetAfterCommit clears only AfterCommit registrations, leaving any
// other hook types untouched.
func (s *TransactionScope) ResetAfterCommit() {
	if s == nil || len(s.hooks) == 0 {
		return
	}
	kept := s.hooks[:0]
	for _, reg := range s.hooks {
		if reg.Type != HookAfterCommit {
			kept = append(kept, reg)
		}
	}
	s.hooks = kept
}

// HookCount reports registered AfterCommit hooks.
func (s *TransactionScope) HookCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, reg := range s.hooks {
		if reg.Type == HookAfterCommit {
			count++
		}
	}
	return count
}

// fireAfterCommit launches every AfterCommit hook without waiting for
// one to finish before starting the next, waits for all to settle, and
// unconditionally clears the AfterCommit registry even if a hook
// failed. The joined failure is returned for the caller; data has
// already durably committed by the time this runs.
func (s *TransactionScope) fireAfterCommit(ctx context.Context) error {
	var fired []HookRegistration
	for _, reg := range s.hooks {
		if reg.Type == HookAfterCommit {
			fired = append(fired, reg)
		}
	}
	defer s.ResetAfterCommit()
	if len(fired) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]error, len(fired))
	for i, reg := range fired {
		wg.Add(1)
		go func(i int, reg HookRegistration) {
			defer wg.Done()
			results[i] = reg.Listener(ctx, reg.Data)
		}(i, reg)
	}
	wg.Wait()

	joined := errors.Join(results...)
	if joined != nil {
		for _, err := range results {
			if err == nil {
				continue
			}
			s.logError(ctx, "after-commit hook failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	return joined
}
