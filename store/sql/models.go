package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type commitJournalRecord struct {
	bun.BaseModel `bun:"table:uow_commit_journal,alias:ucj"`

	ID         string    `bun:"id,pk"`
	Outcome    string    `bun:"outcome,notnull"`
	Staged     int       `bun:"staged,notnull"`
	Entities   int       `bun:"entities,notnull"`
	RawQueries int       `bun:"raw_queries,notnull"`
	Bulk       bool      `bun:"bulk,notnull"`
	LastError  string    `bun:"last_error"`
	StartedAt  time.Time `bun:"started_at,nullzero,notnull"`
	DurationMS int64     `bun:"duration_ms,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
