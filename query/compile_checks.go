package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-uow/core"
)

var (
	_ gocmd.Querier[ListCommitReceiptsMessage, []core.CommitReceipt] = (*ListCommitReceiptsQuery)(nil)
	_ gocmd.Querier[InspectScopeMessage, ScopeSnapshot]              = (*InspectScopeQuery)(nil)
	_ ScopeInspector                                                 = (*core.TransactionScope)(nil)
)
