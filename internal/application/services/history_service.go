package services

import (
	"context"
	"sort"
	"time"

	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// HistoryService merges a slot's remote creative-replacement history and
// feedback history into one chronologically ordered timeline. Every
// failure mode of the collaborator (network error, non-2xx, malformed
// payload, empty response) resolves to an empty timeline; the caller
// always gets something displayable.
type HistoryService struct {
	provider ports.HistoryProvider
	cache    ports.CacheRepository
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewHistoryService creates a new history service. cache may be nil, in
// which case every request goes to the remote collaborator.
func NewHistoryService(provider ports.HistoryProvider, cache ports.CacheRepository, cacheTTL time.Duration, logger *logger.Logger) *HistoryService {
	return &HistoryService{
		provider: provider,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetTimeline returns the merged version timeline for one slot's current
// asset URL, most recent entry first. The fetch is bound to ctx: when the
// caller has moved on to another slot the stale result is discarded with
// the context instead of being returned.
func (s *HistoryService) GetTimeline(ctx context.Context, creativeURL, requestedBy string) []ports.TimelineEntry {
	if creativeURL == "" {
		return []ports.TimelineEntry{}
	}

	cacheKey := "timeline:" + creativeURL
	if s.cache != nil {
		var cached []ports.TimelineEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached
		}
	}

	record, err := s.provider.FetchHistory(ctx, creativeURL, requestedBy)
	if err != nil {
		s.logger.Warn("Creative history fetch failed", "creative_url", creativeURL, "error", err)
		return []ports.TimelineEntry{}
	}
	if ctx.Err() != nil {
		// The subject slot changed while the request was in flight.
		return []ports.TimelineEntry{}
	}

	timeline := buildTimeline(creativeURL, record)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, timeline, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache timeline", "creative_url", creativeURL, "error", err)
		}
	}

	return timeline
}

// buildTimeline prepends the current-asset entry to the decoded history
// and sorts everything by timestamp descending. Ties keep decode order;
// timestamps are expected unique in practice.
func buildTimeline(creativeURL string, record *ports.HistoryRecord) []ports.TimelineEntry {
	timeline := make([]ports.TimelineEntry, 0, len(record.Entries)+1)

	currentURL := record.CurrentURL
	if currentURL == "" {
		currentURL = creativeURL
	}
	currentAt := record.UpdatedAt
	if currentAt.IsZero() {
		currentAt = record.CreatedAt
	}
	timeline = append(timeline, ports.TimelineEntry{
		Type:      ports.TimelineEntryCreative,
		URL:       currentURL,
		Timestamp: currentAt,
		IsCurrent: true,
	})
	timeline = append(timeline, record.Entries...)

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.After(timeline[j].Timestamp)
	})

	return timeline
}
