package core

import (
	"context"
	"fmt"
)

type testEntity struct {
	id       any
	changed  map[string]any
	fields   map[string]any
	applied  map[string]any
	applyErr error
}

func (e *testEntity) Identity() any { return e.id }

func (e *testEntity) Descriptor() EntityDescriptor {
	return EntityDescriptor{Kind: "widget", Table: "widgets", PK: "id"}
}

func (e *testEntity) ChangedFields() map[string]any { return e.changed }

func (e *testEntity) SetField(name string, value any) {
	if e.fields == nil {
		e.fields = map[string]any{}
	}
	e.fields[name] = value
}

func (e *testEntity) ApplyGeneratedFields(fields map[string]any) error {
	e.applied = fields
	return e.applyErr
}

// plainEntity satisfies only the minimal Entity contract.
type plainEntity struct {
	id any
}

func (e *plainEntity) Identity() any { return e.id }

func (e *plainEntity) Descriptor() EntityDescriptor {
	return EntityDescriptor{Kind: "widget", Table: "widgets"}
}

type opCall struct {
	op       string
	target   any
	desc     EntityDescriptor
	criteria Criteria
	fields   map[string]any
	text     string
	params   []any
}

// fakeDatastore applies recorded calls only when the transaction
// closure succeeds, modelling the all-or-nothing boundary.
type fakeDatastore struct {
	applied   []opCall
	begins    int
	commits   int
	rollbacks int
	failOn    string
	failErr   error
	generated map[string]any
}

func (d *fakeDatastore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	d.begins++
	tx := &fakeTx{ds: d}
	if err := fn(ctx, tx); err != nil {
		d.rollbacks++
		return err
	}
	d.commits++
	d.applied = append(d.applied, tx.calls...)
	return nil
}

type fakeTx struct {
	ds    *fakeDatastore
	calls []opCall
}

func (t *fakeTx) record(call opCall) error {
	if t.ds.failOn != "" && call.op == t.ds.failOn {
		if t.ds.failErr != nil {
			return t.ds.failErr
		}
		return fmt.Errorf("%s failed", call.op)
	}
	t.calls = append(t.calls, call)
	return nil
}

func (t *fakeTx) Save(ctx context.Context, target any, cfg SaveConfig) error {
	return t.record(opCall{op: "save", target: target})
}

func (t *fakeTx) SoftRemove(ctx context.Context, target any, cfg RemoveConfig) error {
	return t.record(opCall{op: "soft_remove", target: target})
}

func (t *fakeTx) Remove(ctx context.Context, target any, cfg RemoveConfig) error {
	return t.record(opCall{op: "remove", target: target})
}

func (t *fakeTx) Update(ctx context.Context, desc EntityDescriptor, criteria Criteria, fields map[string]any) error {
	return t.record(opCall{op: "update", desc: desc, criteria: criteria, fields: fields})
}

func (t *fakeTx) Insert(ctx context.Context, desc EntityDescriptor, fields map[string]any) (map[string]any, error) {
	if err := t.record(opCall{op: "insert", desc: desc, fields: fields}); err != nil {
		return nil, err
	}
	return t.ds.generated, nil
}

func (t *fakeTx) Query(ctx context.Context, text string, params []any) error {
	return t.record(opCall{op: "query", text: text, params: params})
}

func newTestScope(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, store Datastore, options ...Option) *TransactionScope {
	t.Helper()
	opts := append([]Option{WithDatastore(store)}, options...)
	scope, err := NewTransactionScope(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new transaction scope: %v", err)
	}
	return scope
}
