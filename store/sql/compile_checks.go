package sqlstore

import "github.com/goliatone/go-uow/core"

var (
	_ core.Datastore        = (*BunDatastore)(nil)
	_ core.Tx               = (*bunTx)(nil)
	_ core.CommitJournal    = (*JournalStore)(nil)
	_ core.DatastoreFactory = (*RepositoryFactory)(nil)
	_ core.JournalFactory   = (*RepositoryFactory)(nil)
)
