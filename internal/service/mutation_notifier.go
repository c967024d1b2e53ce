package service

import (
	"context"

	"go.uber.org/zap"
)

type syncScheduler interface {
	AssignmentChanged(assignmentID string)
	AssignmentRemoved(assignmentID string)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// MutationNotifier fans booking changes out to the calendar sync queue and the gantt cache.
// Both sides are optional; neither can fail the mutation that triggered them.
type MutationNotifier struct {
	Sync   syncScheduler
	Cache  cacheInvalidator
	Logger *zap.Logger
}

// Changed reports assignments whose days, status or notes changed.
func (n MutationNotifier) Changed(ctx context.Context, assignmentIDs ...string) {
	seen := make(map[string]struct{}, len(assignmentIDs))
	for _, id := range assignmentIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if n.Sync != nil {
			n.Sync.AssignmentChanged(id)
		}
	}
	n.invalidate(ctx)
}

// Removed reports a deleted assignment so its external events are removed.
func (n MutationNotifier) Removed(ctx context.Context, assignmentID string) {
	if n.Sync != nil {
		n.Sync.AssignmentRemoved(assignmentID)
	}
	n.invalidate(ctx)
}

func (n MutationNotifier) invalidate(ctx context.Context) {
	if n.Cache == nil {
		return
	}
	if err := n.Cache.Invalidate(ctx, ganttCachePattern); err != nil && n.Logger != nil {
		n.Logger.Warn("gantt cache invalidation failed", zap.Error(err))
	}
}
