package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-uow/core"
	sqlstore "github.com/goliatone/go-uow/store/sql"
	"github.com/uptrace/bun"
)

type widgetRecord struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Name      string     `bun:"name,notnull"`
	Qty       int64      `bun:"qty,notnull,default:0"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero"`

	changed map[string]any
}

func (w *widgetRecord) Identity() any {
	if w.ID == 0 {
		return nil
	}
	return w.ID
}

func (w *widgetRecord) Descriptor() core.EntityDescriptor {
	return core.EntityDescriptor{Kind: "widget", Table: "widgets", PK: "id"}
}

func (w *widgetRecord) ChangedFields() map[string]any { return w.changed }

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:uow-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := sqlstore.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	schema := []string{
		`CREATE TABLE widgets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			qty INTEGER NOT NULL DEFAULT 0,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE uow_commit_journal (
			id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL,
			staged INTEGER NOT NULL DEFAULT 0,
			entities INTEGER NOT NULL DEFAULT 0,
			raw_queries INTEGER NOT NULL DEFAULT 0,
			bulk INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func countWidgets(t *testing.T, db *bun.DB, withDeleted bool) int {
	t.Helper()
	query := db.NewSelect().Model((*widgetRecord)(nil))
	if withDeleted {
		query = query.WhereAllWithDeleted()
	}
	count, err := query.Count(context.Background())
	if err != nil {
		t.Fatalf("count widgets: %v", err)
	}
	return count
}

func TestBunDatastore_SaveInsertsThenUpdates(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	store, err := sqlstore.NewBunDatastore(db)
	if err != nil {
		t.Fatalf("new datastore: %v", err)
	}

	widget := &widgetRecord{Name: "gear"}
	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.Save(ctx, core.Entity(widget), core.SaveConfig{})
	})
	if err != nil {
		t.Fatalf("insert save: %v", err)
	}
	if widget.ID == 0 {
		t.Fatalf("expected generated identity after insert")
	}

	widget.Qty = 7
	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.Save(ctx, core.Entity(widget), core.SaveConfig{})
	})
	if err != nil {
		t.Fatalf("update save: %v", err)
	}

	var loaded widgetRecord
	if err := db.NewSelect().Model(&loaded).Where("id = ?", widget.ID).Scan(ctx); err != nil {
		t.Fatalf("load widget: %v", err)
	}
	if loaded.Qty != 7 {
		t.Fatalf("expected qty 7, got %d", loaded.Qty)
	}
	if countWidgets(t, db, false) != 1 {
		t.Fatalf("expected a single row")
	}
}

func TestBunDatastore_SoftAndHardRemove(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	store, err := sqlstore.NewBunDatastore(db)
	if err != nil {
		t.Fatalf("new datastore: %v", err)
	}

	soft := &widgetRecord{Name: "soft"}
	hard := &widgetRecord{Name: "hard"}
	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.Save(ctx, []core.Entity{soft, hard}, core.SaveConfig{})
	})
	if err != nil {
		t.Fatalf("seed widgets: %v", err)
	}

	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		if err := tx.SoftRemove(ctx, core.Entity(soft), core.RemoveConfig{}); err != nil {
			return err
		}
		return tx.Remove(ctx, core.Entity(hard), core.RemoveConfig{})
	})
	if err != nil {
		t.Fatalf("remove widgets: %v", err)
	}

	if got := countWidgets(t, db, false); got != 0 {
		t.Fatalf("expected no live rows, got %d", got)
	}
	if got := countWidgets(t, db, true); got != 1 {
		t.Fatalf("expected the tombstoned row to survive, got %d", got)
	}
}

func TestBunDatastore_TargetedUpdateAndRawQuery(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	store, err := sqlstore.NewBunDatastore(db)
	if err != nil {
		t.Fatalf("new datastore: %v", err)
	}

	widget := &widgetRecord{Name: "gear", Qty: 1}
	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.Save(ctx, core.Entity(widget), core.SaveConfig{})
	})
	if err != nil {
		t.Fatalf("seed widget: %v", err)
	}

	desc := widget.Descriptor()
	err = store.RunInTx(ctx, func(ctx context.Context, tx core.Tx) error {
		if err := tx.Update(ctx, desc,
			core.Criteria{Fields: map[string]any{"id": widget.ID}},
			map[string]any{"name": "cog"},
		); err != nil {
			return err
		}
		return tx.Query(ctx, "UPDATE widgets SET qty = qty + ? WHERE id = ?", []any{int64(9), widget.ID})
	})
	if err != nil {
		t.Fatalf("targeted update: %v", err)
	}

	var loaded widgetRecord
	if err := db.NewSelect().Model(&loaded).Where("id = ?", widget.ID).Scan(ctx); err != nil {
		t.Fatalf("load widget: %v", err)
	}
	if loaded.Name != "cog" {
		t.Fatalf("expected targeted name update, got %q", loaded.Name)
	}
	if loaded.Qty != 10 {
		t.Fatalf("expected raw query applied, got qty %d", loaded.Qty)
	}
}

func TestJournalStore_RecordAndRecent(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	journal, err := sqlstore.NewJournalStore(db)
	if err != nil {
		t.Fatalf("new journal store: %v", err)
	}

	receipt := core.CommitReceipt{
		Outcome:    core.OutcomeCommitted,
		Staged:     3,
		Entities:   2,
		RawQueries: 1,
		StartedAt:  time.Now().UTC(),
		Duration:   25 * time.Millisecond,
	}
	if err := journal.Record(ctx, receipt); err != nil {
		t.Fatalf("record receipt: %v", err)
	}

	receipts, err := journal.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent receipts: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}
	if receipts[0].Outcome != core.OutcomeCommitted {
		t.Fatalf("expected committed outcome, got %q", receipts[0].Outcome)
	}
	if receipts[0].Staged != 3 || receipts[0].Entities != 2 || receipts[0].RawQueries != 1 {
		t.Fatalf("unexpected receipt counters: %+v", receipts[0])
	}
}

func TestTransactionScope_CommitAgainstSQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	factory, err := sqlstore.NewRepositoryFactoryFromDB(db)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	scope, err := core.NewTransactionScope(core.DefaultConfig(),
		uowWithFactory(factory)...,
	)
	if err != nil {
		t.Fatalf("new transaction scope: %v", err)
	}

	first := &widgetRecord{Name: "gear"}
	second := &widgetRecord{Name: "cog"}
	if err := scope.Add(first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := scope.AddCollection([]core.Entity{second}); err != nil {
		t.Fatalf("add collection: %v", err)
	}
	if err := scope.AddRawQuery("UPDATE widgets SET qty = ?", int64(5)); err != nil {
		t.Fatalf("add raw query: %v", err)
	}

	if err := scope.Commit(ctx, core.CommitOptions{}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := countWidgets(t, db, false); got != 2 {
		t.Fatalf("expected 2 widgets, got %d", got)
	}
	var qty []int64
	if err := db.NewSelect().Model((*widgetRecord)(nil)).Column("qty").Scan(ctx, &qty); err != nil {
		t.Fatalf("load quantities: %v", err)
	}
	for _, value := range qty {
		if value != 5 {
			t.Fatalf("expected raw query applied to all rows, got %v", qty)
		}
	}

	journal := factory.JournalStore()
	if journal == nil {
		t.Fatalf("expected journal store built by factory")
	}
	receipts, err := journal.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent receipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].Outcome != core.OutcomeCommitted {
		t.Fatalf("expected one committed receipt, got %+v", receipts)
	}
}

func TestTransactionScope_RollbackLeavesNoPartialWrites(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	store, err := sqlstore.NewBunDatastore(db)
	if err != nil {
		t.Fatalf("new datastore: %v", err)
	}
	scope, err := core.NewTransactionScope(core.DefaultConfig(),
		core.WithDatastore(store),
	)
	if err != nil {
		t.Fatalf("new transaction scope: %v", err)
	}

	if err := scope.Add(&widgetRecord{Name: "gear"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := scope.AddRawQuery("UPDATE no_such_table SET x = 1"); err != nil {
		t.Fatalf("add raw query: %v", err)
	}

	if err := scope.Commit(ctx, core.CommitOptions{}); err == nil {
		t.Fatalf("expected commit failure")
	}
	if got := countWidgets(t, db, true); got != 0 {
		t.Fatalf("expected full rollback, found %d rows", got)
	}
	if scope.PendingCount() != 0 {
		t.Fatalf("expected cleared queue after rollback, got %d", scope.PendingCount())
	}
}

func uowWithFactory(factory *sqlstore.RepositoryFactory) []core.Option {
	return []core.Option{
		core.WithRepositoryFactory(factory),
		core.WithPersistenceClient(factory.DB()),
	}
}
