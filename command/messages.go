package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-uow/core"
)

const (
	TypeCommit        = "uow.command.commit"
	TypeStageRawQuery = "uow.command.stage_raw_query"
	TypeResetHooks    = "uow.command.hooks.reset"
)

type CommitMessage struct {
	Options core.CommitOptions
}

func (CommitMessage) Type() string { return TypeCommit }

func (m CommitMessage) Validate() error {
	if m.Options.Save.Chunk < 0 {
		return fmt.Errorf("command: save chunk must not be negative")
	}
	if m.Options.Remove.Chunk < 0 {
		return fmt.Errorf("command: remove chunk must not be negative")
	}
	return nil
}

type StageRawQueryMessage struct {
	Text   string
	Params []any
}

func (StageRawQueryMessage) Type() string { return TypeStageRawQuery }

func (m StageRawQueryMessage) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("command: query text is required")
	}
	return nil
}

type ResetHooksMessage struct{}

func (ResetHooksMessage) Type() string { return TypeResetHooks }

func (ResetHooksMessage) Validate() error { return nil }
