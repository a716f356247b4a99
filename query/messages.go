package query

import (
	"fmt"

	"github.com/goliatone/go-uow/core"
)

const (
	TypeListCommitReceipts = "uow.query.commit_receipts.list"
	TypeInspectScope       = "uow.query.scope.inspect"
)

type ListCommitReceiptsMessage struct {
	Limit   int
	Outcome string
}

func (ListCommitReceiptsMessage) Type() string { return TypeListCommitReceipts }

func (m ListCommitReceiptsMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	switch m.Outcome {
	case "", core.OutcomeCommitted, core.OutcomeRolledBack:
		return nil
	default:
		return fmt.Errorf("query: unknown outcome filter %q", m.Outcome)
	}
}

type InspectScopeMessage struct {
	IncludePending bool
}

func (InspectScopeMessage) Type() string { return TypeInspectScope }

func (InspectScopeMessage) Validate() error { return nil }

func normalizeReceiptLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
