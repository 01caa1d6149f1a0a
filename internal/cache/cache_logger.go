package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// propagating failures. Cache invalidation must never fail a write path.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of propagating failures.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateProposalCache drops every cached view of one proposal, including
// list pages that may contain it.
func InvalidateProposalCache(ctx context.Context, cm *CacheManager, proposalID uint) {
	SafeDelete(ctx, cm.Proposal,
		fmt.Sprintf("id:%d", proposalID),
		fmt.Sprintf("details:%d", proposalID))
	SafeInvalidatePattern(ctx, cm.Proposal, "list:*")
}

// InvalidateExamSetCache drops cached views of one exam set. The owning
// proposal's detail view embeds the set, so it is dropped too.
func InvalidateExamSetCache(ctx context.Context, cm *CacheManager, setID uint, proposalID *uint) {
	SafeDelete(ctx, cm.ExamSet, fmt.Sprintf("id:%d", setID))
	SafeInvalidatePattern(ctx, cm.ExamSet, "list:*")
	if proposalID != nil {
		InvalidateProposalCache(ctx, cm, *proposalID)
	}
}

// InvalidateExamCache drops cached views of one exam.
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint, setID *uint) {
	SafeDelete(ctx, cm.Exam, fmt.Sprintf("id:%d", examID))
	SafeInvalidatePattern(ctx, cm.Exam, "list:*")
	if setID != nil {
		SafeDelete(ctx, cm.ExamSet, fmt.Sprintf("id:%d", *setID))
	}
}
