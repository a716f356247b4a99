package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Commit opens one datastore transaction scoped to the whole queue,
// replays every staged change, and on success fires the AfterCommit
// hooks. It either returns having applied every record or raises
// exactly one error; the pending queue is empty afterward regardless
// of outcome. Hook failures are reported after the transaction has
// already durably committed and never roll back data changes.
func (s *TransactionScope) Commit(ctx context.Context, options CommitOptions) error {
	if s == nil {
		return dependencyError("core: transaction scope is required")
	}
	if s.store == nil {
		return dependencyError("core: datastore is required")
	}
	if s.phase == PhaseCommitting {
		return usageError("core: commit already in flight")
	}

	queue := s.pending
	s.phase = PhaseCommitting
	startedAt := time.Now()

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if options.Bulk {
			return s.replayBulk(ctx, tx, queue, options)
		}
		return s.replayOrdered(ctx, tx, queue, options)
	})

	// The queue is deliberately cleared on failure too; the scope is
	// not a reusable accumulator across unrelated commits.
	s.pending = nil

	if err != nil {
		s.phase = PhaseRolledBack
		mapped := s.mapCommitError(err)
		s.observeCommit(ctx, startedAt, queue, options, mapped)
		s.recordReceipt(ctx, startedAt, queue, options, OutcomeRolledBack, mapped)
		s.resetPhase()
		return mapped
	}

	s.phase = PhaseCommitted
	s.observeCommit(ctx, startedAt, queue, options, nil)
	s.recordReceipt(ctx, startedAt, queue, options, OutcomeCommitted, nil)

	hookErr := s.fireAfterCommit(ctx)
	s.resetPhase()
	if hookErr != nil {
		return wrapHookError(hookErr)
	}
	return nil
}

func (s *TransactionScope) mapCommitError(err error) error {
	wrapped := wrapDatastoreError(err)
	if s.errorMapper == nil {
		return wrapped
	}
	if rich := s.errorMapper(wrapped); rich != nil {
		return rich
	}
	return wrapped
}

// resetPhase is the single exit transition from either terminal phase
// back to Staging with a fresh queue.
func (s *TransactionScope) resetPhase() {
	s.phase = PhaseStaging
	s.pending = nil
}

func (s *TransactionScope) replayOrdered(ctx context.Context, tx Tx, queue []PendingChange, options CommitOptions) error {
	for _, change := range queue {
		if change.Kind == ChangeKindRawQuery {
			if err := tx.Query(ctx, change.Raw.Text, change.Raw.Params); err != nil {
				return err
			}
			continue
		}
		var err error
		switch change.State {
		case StateDelete:
			err = tx.SoftRemove(ctx, s.removeTarget(change), options.Remove)
		case StateHardDelete:
			err = tx.Remove(ctx, s.removeTarget(change), options.Remove)
		case StateUpdate:
			err = s.applyUpdate(ctx, tx, change, options)
		case StateInsert:
			err = s.applyInsert(ctx, tx, change, options)
		default:
			err = s.fatalDispatch(ctx, change, "unrecognized change state")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// replayBulk partitions the queue into one entity list and the raw
// queries, merge-saves every entity in a single call, then executes
// the raw queries in original submission order. Per-record state
// semantics are deliberately ignored on this path.
func (s *TransactionScope) replayBulk(ctx context.Context, tx Tx, queue []PendingChange, options CommitOptions) error {
	var entities []Entity
	var raws []RawQuery
	for _, change := range queue {
		switch change.Kind {
		case ChangeKindRawQuery:
			raws = append(raws, change.Raw)
		case ChangeKindEntity:
			if change.Entity == nil {
				return s.fatalDispatch(ctx, change, "bulk save target is not an entity")
			}
			entities = append(entities, change.Entity)
		case ChangeKindBatch:
			entities = append(entities, change.Batch...)
		}
	}

	save := options.Save
	if save.Chunk <= 0 {
		save.Chunk = s.config.BulkChunkSize
	}
	if len(entities) > 0 {
		if err := tx.Save(ctx, entities, save); err != nil {
			return err
		}
	}
	for _, raw := range raws {
		if err := tx.Query(ctx, raw.Text, raw.Params); err != nil {
			return err
		}
	}
	return nil
}

func (s *TransactionScope) applyUpdate(ctx context.Context, tx Tx, change PendingChange, options CommitOptions) error {
	if change.Kind == ChangeKindEntity && change.Entity != nil {
		if snap, ok := change.Entity.(Snapshotter); ok {
			if changed := snap.ChangedFields(); len(changed) > 0 {
				return tx.Update(ctx, change.Descriptor, IdentityCriteria(change.Entity), changed)
			}
		}
		if change.Options != nil {
			criteria := change.Options.Criteria
			if criteria.IsZero() {
				criteria = IdentityCriteria(change.Entity)
			}
			return tx.Update(ctx, change.Descriptor, criteria, change.Options.Values)
		}
		return tx.Save(ctx, change.Entity, options.Save)
	}
	if change.Kind == ChangeKindBatch && len(change.Batch) > 0 {
		// Whole-collection save; no per-element diffing on this path.
		return tx.Save(ctx, change.Batch, options.Save)
	}
	return s.fatalDispatch(ctx, change, "update target is neither an entity nor a collection")
}

func (s *TransactionScope) applyInsert(ctx context.Context, tx Tx, change PendingChange, options CommitOptions) error {
	if change.Options != nil {
		if change.Entity == nil {
			return s.fatalDispatch(ctx, change, "targeted insert requires an entity")
		}
		generated, err := tx.Insert(ctx, change.Descriptor, change.Options.Values)
		if err != nil {
			return err
		}
		if applier, ok := change.Entity.(GeneratedFieldApplier); ok && len(generated) > 0 {
			if err := applier.ApplyGeneratedFields(generated); err != nil {
				return invariantError("core: applying generated fields failed: " + err.Error())
			}
		}
		return nil
	}
	if change.Kind == ChangeKindBatch {
		return tx.Save(ctx, change.Batch, options.Save)
	}
	return tx.Save(ctx, change.Entity, options.Save)
}

func (s *TransactionScope) removeTarget(change PendingChange) any {
	if change.Kind == ChangeKindBatch {
		return change.Batch
	}
	return change.Entity
}

// fatalDispatch logs and raises an invariant violation, aborting the
// in-flight transaction.
func (s *TransactionScope) fatalDispatch(ctx context.Context, change PendingChange, reason string) error {
	s.logError(ctx, "change dispatch failed", map[string]any{
		"kind":   string(change.Kind),
		"state":  string(change.State),
		"entity": change.Descriptor.Kind,
		"reason": reason,
	})
	return invariantError("core: " + reason)
}

func (s *TransactionScope) recordReceipt(ctx context.Context, startedAt time.Time, queue []PendingChange, options CommitOptions, outcome string, err error) {
	if s == nil || s.journal == nil {
		return
	}
	entities, raws := 0, 0
	for _, change := range queue {
		switch change.Kind {
		case ChangeKindRawQuery:
			raws++
		case ChangeKindBatch:
			entities += len(change.Batch)
		default:
			entities++
		}
	}
	receipt := CommitReceipt{
		ID:         uuid.NewString(),
		Outcome:    outcome,
		Staged:     len(queue),
		Entities:   entities,
		RawQueries: raws,
		Bulk:       options.Bulk,
		StartedAt:  startedAt.UTC(),
		Duration:   time.Since(startedAt),
	}
	if err != nil {
		receipt.Error = err.Error()
	}
	if recordErr := s.journal.Record(ctx, receipt); recordErr != nil {
		s.logError(ctx, "commit journal record failed", map[string]any{
			"outcome": outcome,
			"error":   recordErr.Error(),
		})
	}
}
