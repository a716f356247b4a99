package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-uow/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the bun-backed datastore and journal from a
// persistence client or a raw bun.DB.
type RepositoryFactory struct {
	db *bun.DB

	datastore    *BunDatastore
	journalStore *JournalStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildDatastore(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildDatastore(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildDatastore(persistenceClient any) (core.Datastore, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if err := f.resolve(persistenceClient); err != nil {
		return nil, err
	}
	if f.datastore == nil {
		datastore, err := NewBunDatastore(f.db)
		if err != nil {
			return nil, err
		}
		f.datastore = datastore
	}
	return f.datastore, nil
}

func (f *RepositoryFactory) BuildJournal(persistenceClient any) (core.CommitJournal, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if err := f.resolve(persistenceClient); err != nil {
		return nil, err
	}
	if f.journalStore == nil {
		journalStore, err := NewJournalStore(f.db)
		if err != nil {
			return nil, err
		}
		f.journalStore = journalStore
	}
	return f.journalStore, nil
}

func (f *RepositoryFactory) Datastore() *BunDatastore {
	if f == nil {
		return nil
	}
	return f.datastore
}

func (f *RepositoryFactory) JournalStore() *JournalStore {
	if f == nil {
		return nil
	}
	return f.journalStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) resolve(persistenceClient any) error {
	if f.db != nil {
		return nil
	}
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return err
	}
	f.db = db
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
