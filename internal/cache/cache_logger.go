package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidatePageCaches drops cached page data after a mutation
func InvalidatePageCaches(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Pages, DashboardCacheConfig.Prefix+"*")
	SafeInvalidatePattern(ctx, cm.Pages, OrgChartCacheConfig.Prefix+"*")
}
