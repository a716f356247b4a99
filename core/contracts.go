package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Datastore is the backing-store collaborator. The coordinator never
// talks to a connection directly; every staged operation is replayed
// through the Tx handed to the RunInTx closure, so the store's own
// transaction provides the all-or-nothing boundary.
type Datastore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the per-transaction surface of the datastore.
type Tx interface {
	// Save upserts a single entity or a collection by identity.
	Save(ctx context.Context, target any, cfg SaveConfig) error
	// SoftRemove tombstones a single entity or a collection.
	SoftRemove(ctx context.Context, target any, cfg RemoveConfig) error
	// Remove physically deletes a single entity or a collection.
	Remove(ctx context.Context, target any, cfg RemoveConfig) error
	// Update writes only the given field map to rows matched by criteria.
	Update(ctx context.Context, desc EntityDescriptor, criteria Criteria, fields map[string]any) error
	// Insert writes only the given field map and returns the
	// datastore-generated fields (identity, defaulted columns).
	Insert(ctx context.Context, desc EntityDescriptor, fields map[string]any) (map[string]any, error)
	// Query executes a raw statement. Parameter binding safety is the
	// caller's responsibility.
	Query(ctx context.Context, text string, params []any) error
}

// EntityDescriptor routes targeted update/insert calls to the right
// table without reflecting over runtime type names.
type EntityDescriptor struct {
	Kind  string
	Table string
	PK    string
}

func (d EntityDescriptor) PKColumn() string {
	if d.PK == "" {
		return "id"
	}
	return d.PK
}

// Entity is the minimal contract a staged object must satisfy.
// Entities are owned by the caller; the coordinator only references
// them for the duration of one staging/commit cycle.
type Entity interface {
	Identity() any
	Descriptor() EntityDescriptor
}

// Snapshotter is an optional entity capability: a view of the fields
// changed since the entity's pre-mutation snapshot. A non-empty map
// switches whole-entity saves to targeted field updates.
type Snapshotter interface {
	ChangedFields() map[string]any
}

// FieldWriter is an optional entity capability used by the
// custom-values staging operations to merge literal values onto the
// entity's in-memory fields before queuing.
type FieldWriter interface {
	SetField(name string, value any)
}

// GeneratedFieldApplier is an optional entity capability: after a
// targeted insert, the coordinator hands back the datastore-generated
// field map so the caller's reference reflects post-insert state.
type GeneratedFieldApplier interface {
	ApplyGeneratedFields(fields map[string]any) error
}

// CommitJournal records one receipt per commit outcome. Recording is
// best effort and never affects the commit result.
type CommitJournal interface {
	Record(ctx context.Context, receipt CommitReceipt) error
}

// DatastoreFactory lets hosts hand the coordinator an opaque
// repository factory that knows how to build the datastore from a
// persistence client.
type DatastoreFactory interface {
	BuildDatastore(persistenceClient any) (Datastore, error)
}

// JournalFactory is the journal counterpart of DatastoreFactory.
type JournalFactory interface {
	BuildJournal(persistenceClient any) (CommitJournal, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// MetricsRecorder receives commit counters and durations.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
