package command

import (
	"context"

	"github.com/goliatone/go-uow/core"
)

// Coordinator is the slice of the transaction scope the command
// surface needs.
type Coordinator interface {
	Commit(ctx context.Context, options core.CommitOptions) error
	AddRawQuery(text string, params ...any) error
	ResetAfterCommit()
}

type CommitCommand struct {
	scope Coordinator
}

func NewCommitCommand(scope Coordinator) *CommitCommand {
	return &CommitCommand{scope: scope}
}

func (c *CommitCommand) Execute(ctx context.Context, msg CommitMessage) error {
	if c == nil || c.scope == nil {
		return commandDependencyError("command: transaction scope is required")
	}
	return c.scope.Commit(ctx, msg.Options)
}

type StageRawQueryCommand struct {
	scope Coordinator
}

func NewStageRawQueryCommand(scope Coordinator) *StageRawQueryCommand {
	return &StageRawQueryCommand{scope: scope}
}

func (c *StageRawQueryCommand) Execute(ctx context.Context, msg StageRawQueryMessage) error {
	if c == nil || c.scope == nil {
		return commandDependencyError("command: transaction scope is required")
	}
	return c.scope.AddRawQuery(msg.Text, msg.Params...)
}

type ResetHooksCommand struct {
	scope Coordinator
}

func NewResetHooksCommand(scope Coordinator) *ResetHooksCommand {
	return &ResetHooksCommand{scope: scope}
}

func (c *ResetHooksCommand) Execute(ctx context.Context, msg ResetHooksMessage) error {
	if c == nil || c.scope == nil {
		return commandDependencyError("command: transaction scope is required")
	}
	c.scope.ResetAfterCommit()
	return nil
}
