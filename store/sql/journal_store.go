package sqlstore

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-uow/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// JournalStore persists one record per commit outcome.
type JournalStore struct {
	db   *bun.DB
	repo repository.Repository[*commitJournalRecord]
}

func NewJournalStore(db *bun.DB) (*JournalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*commitJournalRecord](db, journalHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid journal repository wiring: %w", err)
		}
	}
	return &JournalStore{db: db, repo: repo}, nil
}

func (s *JournalStore) Record(ctx context.Context, receipt core.CommitReceipt) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	id := receipt.ID
	if id == "" {
		id = uuid.NewString()
	}
	startedAt := receipt.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	record := &commitJournalRecord{
		ID:         id,
		Outcome:    receipt.Outcome,
		Staged:     receipt.Staged,
		Entities:   receipt.Entities,
		RawQueries: receipt.RawQueries,
		Bulk:       receipt.Bulk,
		LastError:  receipt.Error,
		StartedAt:  startedAt,
		DurationMS: receipt.Duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// Recent returns the latest receipts, newest first.
func (s *JournalStore) Recent(ctx context.Context, limit int) ([]core.CommitReceipt, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: journal store is not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	var records []commitJournalRecord
	if err := s.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, err
	}
	receipts := make([]core.CommitReceipt, 0, len(records))
	for _, record := range records {
		receipts = append(receipts, core.CommitReceipt{
			ID:         record.ID,
			Outcome:    record.Outcome,
			Staged:     record.Staged,
			Entities:   record.Entities,
			RawQueries: record.RawQueries,
			Bulk:       record.Bulk,
			StartedAt:  record.StartedAt,
			Duration:   time.Duration(record.DurationMS) * time.Millisecond,
			Error:      record.LastError,
		})
	}
	return receipts, nil
}
