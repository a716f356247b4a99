package core

import (
	"context"
	"reflect"
	"time"
)

type ChangeKind string

const (
	ChangeKindRawQuery ChangeKind = "raw_query"
	ChangeKindEntity   ChangeKind = "entity"
	ChangeKindBatch    ChangeKind = "entity_batch"
)

type ChangeState string

const (
	StateInsert     ChangeState = "insert"
	StateUpdate     ChangeState = "update"
	StateDelete     ChangeState = "delete"
	StateHardDelete ChangeState = "hard_delete"
)

// RawQuery is a raw statement staged for execution in submission order.
type RawQuery struct {
	Text   string
	Params []any
}

// Criteria targets rows for a field-map update. A zero Criteria means
// "match by identity". Expr takes precedence over Fields when both are
// set.
type Criteria struct {
	Expr   string
	Args   []any
	Fields map[string]any
}

func (c Criteria) IsZero() bool {
	return c.Expr == "" && len(c.Fields) == 0
}

// IdentityCriteria targets the entity's own row through its
// descriptor's primary-key column.
func IdentityCriteria(entity Entity) Criteria {
	if entity == nil {
		return Criteria{}
	}
	return Criteria{
		Fields: map[string]any{
			entity.Descriptor().PKColumn(): entity.Identity(),
		},
	}
}

// ChangeOptions overrides whole-entity save semantics with a targeted
// field update/insert. Values never contains callable fields; they are
// dropped before the change is queued.
type ChangeOptions struct {
	Criteria Criteria
	Values   map[string]any
}

// PendingChange is one staged mutation. State is meaningful only when
// Kind is not ChangeKindRawQuery.
type PendingChange struct {
	Kind       ChangeKind
	State      ChangeState
	Entity     Entity
	Batch      []Entity
	Raw        RawQuery
	Descriptor EntityDescriptor
	Options    *ChangeOptions
}

type HookType string

const HookAfterCommit HookType = "after_commit"

// HookListener receives the Data the hook was registered with.
type HookListener func(ctx context.Context, data any) error

type HookRegistration struct {
	Type     HookType
	Listener HookListener
	Data     any
}

type ScopePhase string

const (
	PhaseStaging    ScopePhase = "staging"
	PhaseCommitting ScopePhase = "committing"
	PhaseCommitted  ScopePhase = "committed"
	PhaseRolledBack ScopePhase = "rolled_back"
)

// SaveConfig tunes datastore save calls issued during commit.
type SaveConfig struct {
	Chunk int
}

// RemoveConfig tunes datastore remove calls issued during commit.
type RemoveConfig struct {
	Chunk int
}

// CommitOptions parameterizes one Commit call. Bulk trades per-record
// state semantics for throughput: every staged entity is merge-saved,
// Delete/HardDelete markers and custom-value options are ignored.
type CommitOptions struct {
	Save   SaveConfig
	Remove RemoveConfig
	Bulk   bool
}

const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// CommitReceipt summarizes one commit outcome for the journal.
type CommitReceipt struct {
	ID         string
	Outcome    string
	Staged     int
	Entities   int
	RawQueries int
	Bulk       bool
	StartedAt  time.Time
	Duration   time.Duration
	Error      string
}

// filterLiteralValues drops callable values so the materialized entity
// that participates in transaction diffing carries only literals.
func filterLiteralValues(values map[string]any) map[string]any {
	if len(values) == 0 {
		return map[string]any{}
	}
	filtered := make(map[string]any, len(values))
	for key, value := range values {
		if value != nil && reflect.ValueOf(value).Kind() == reflect.Func {
			continue
		}
		filtered[key] = value
	}
	return filtered
}
