package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-uow/core"
)

var (
	_ gocmd.Commander[CommitMessage]        = (*CommitCommand)(nil)
	_ gocmd.Commander[StageRawQueryMessage] = (*StageRawQueryCommand)(nil)
	_ gocmd.Commander[ResetHooksMessage]    = (*ResetHooksCommand)(nil)
	_ Coordinator                           = (*core.TransactionScope)(nil)
)
