package uow_test

import (
	"context"
	"io/fs"
	"testing"

	uow "github.com/goliatone/go-uow"
)

type noopDatastore struct {
	runs int
}

func (d *noopDatastore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	d.runs++
	return fn(ctx, noopTx{})
}

type noopTx struct{}

func (noopTx) Save(context.Context, any, uow.SaveConfig) error { return nil }

func (noopTx) SoftRemove(context.Context, any, uow.RemoveConfig) error { return nil }

func (noopTx) Remove(context.Context, any, uow.RemoveConfig) error { return nil }
func (noopTx) Update(context.Context, uow.EntityDescriptor, uow.Criteria, map[string]any) error {
	return nil
}

func (noopTx) Insert(context.Context, uow.EntityDescriptor, map[string]any) (map[string]any, error) {
	return nil, nil
}

func (noopTx) Query(context.Context, string, []any) error { return nil }

func TestDefaultConfig(t *testing.T) {
	cfg := uow.DefaultConfig()
	if cfg.Name != "uow" {
		t.Fatalf("expected default name uow, got %q", cfg.Name)
	}
	if cfg.BulkChunkSize != 100 {
		t.Fatalf("expected default bulk chunk size 100, got %d", cfg.BulkChunkSize)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal enabled by default")
	}
}

func TestNew_RequiresDatastore(t *testing.T) {
	if _, err := uow.New(uow.DefaultConfig()); err == nil {
		t.Fatal("expected error without a datastore")
	}
}

func TestNew_CommitThroughFacade(t *testing.T) {
	store := &noopDatastore{}
	scope, err := uow.New(uow.DefaultConfig(), uow.WithDatastore(store))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := scope.AddRawQuery("SELECT 1"); err != nil {
		t.Fatalf("stage raw query: %v", err)
	}
	if err := scope.Commit(context.Background(), uow.CommitOptions{}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if store.runs != 1 {
		t.Fatalf("expected 1 transaction run, got %d", store.runs)
	}
	if scope.PendingCount() != 0 {
		t.Fatalf("expected empty queue after commit, got %d", scope.PendingCount())
	}
}

func TestGetMigrationsFS(t *testing.T) {
	matches, err := fs.Glob(uow.GetMigrationsFS(), "data/sql/migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected embedded up migrations")
	}
}
