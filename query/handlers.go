package query

import (
	"context"

	"github.com/goliatone/go-uow/core"
)

// ReceiptReader is the read side of the commit journal.
type ReceiptReader interface {
	Recent(ctx context.Context, limit int) ([]core.CommitReceipt, error)
}

// ScopeInspector is the read surface a transaction scope exposes while
// changes are being staged.
type ScopeInspector interface {
	Phase() core.ScopePhase
	PendingCount() int
	Pending() []core.PendingChange
	HookCount() int
}

// ScopeSnapshot is a point-in-time view of a scope's staging state.
type ScopeSnapshot struct {
	Phase        core.ScopePhase
	PendingCount int
	HookCount    int
	Pending      []core.PendingChange
}

type ListCommitReceiptsQuery struct {
	reader ReceiptReader
}

func NewListCommitReceiptsQuery(reader ReceiptReader) *ListCommitReceiptsQuery {
	return &ListCommitReceiptsQuery{reader: reader}
}

func (q *ListCommitReceiptsQuery) Query(
	ctx context.Context,
	msg ListCommitReceiptsMessage,
) ([]core.CommitReceipt, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: receipt reader is required")
	}
	receipts, err := q.reader.Recent(ctx, normalizeReceiptLimit(msg.Limit))
	if err != nil {
		return nil, err
	}
	if msg.Outcome == "" {
		return receipts, nil
	}
	filtered := make([]core.CommitReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		if receipt.Outcome == msg.Outcome {
			filtered = append(filtered, receipt)
		}
	}
	return filtered, nil
}

type InspectScopeQuery struct {
	scope ScopeInspector
}

func NewInspectScopeQuery(scope ScopeInspector) *InspectScopeQuery {
	return &InspectScopeQuery{scope: scope}
}

func (q *InspectScopeQuery) Query(ctx context.Context, msg InspectScopeMessage) (ScopeSnapshot, error) {
	if q == nil || q.scope == nil {
		return ScopeSnapshot{}, queryDependencyError("query: scope inspector is required")
	}
	snapshot := ScopeSnapshot{
		Phase:        q.scope.Phase(),
		PendingCount: q.scope.PendingCount(),
		HookCount:    q.scope.HookCount(),
	}
	if msg.IncludePending {
		snapshot.Pending = q.scope.Pending()
	}
	return snapshot, nil
}
