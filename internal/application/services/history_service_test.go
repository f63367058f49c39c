package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

type fakeHistoryProvider struct {
	record *ports.HistoryRecord
	err    error
	calls  int
}

func (f *fakeHistoryProvider) FetchHistory(ctx context.Context, creativeURL, requestedBy string) (*ports.HistoryRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func TestGetTimelineMergesAndSorts(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	provider := &fakeHistoryProvider{record: &ports.HistoryRecord{
		CurrentURL: "https://cdn/v3.png",
		UpdatedAt:  now,
		CreatedAt:  now.Add(-72 * time.Hour),
		Entries: []ports.TimelineEntry{
			{Type: ports.TimelineEntryCreative, URL: "https://cdn/v1.png", Timestamp: now.Add(-72 * time.Hour)},
			{Type: ports.TimelineEntryFeedback, Feedback: "make the logo bigger", Timestamp: now.Add(-48 * time.Hour)},
			{Type: ports.TimelineEntryCreative, URL: "https://cdn/v2.png", Timestamp: now.Add(-24 * time.Hour)},
		},
	}}

	svc := NewHistoryService(provider, nil, 0, logger.NewNop())
	timeline := svc.GetTimeline(context.Background(), "https://cdn/v3.png", "reviewer@agency.test")

	if len(timeline) != 4 {
		t.Fatalf("timeline length = %d, want 4", len(timeline))
	}

	// Most recent first: current asset, then v2, then feedback, then v1.
	if !timeline[0].IsCurrent || timeline[0].URL != "https://cdn/v3.png" {
		t.Errorf("timeline[0] = %+v, want current asset", timeline[0])
	}
	if timeline[1].URL != "https://cdn/v2.png" {
		t.Errorf("timeline[1] = %+v", timeline[1])
	}
	if timeline[2].Type != ports.TimelineEntryFeedback || timeline[2].Feedback != "make the logo bigger" {
		t.Errorf("timeline[2] = %+v", timeline[2])
	}
	if timeline[3].URL != "https://cdn/v1.png" {
		t.Errorf("timeline[3] = %+v", timeline[3])
	}

	for i := 1; i < len(timeline); i++ {
		if timeline[i].IsCurrent {
			t.Errorf("timeline[%d] flagged current", i)
		}
		if timeline[i-1].Timestamp.Before(timeline[i].Timestamp) {
			t.Errorf("timeline not sorted descending at %d", i)
		}
	}
}

func TestGetTimelineProviderFailureYieldsEmpty(t *testing.T) {
	provider := &fakeHistoryProvider{err: errors.New("connection refused")}
	svc := NewHistoryService(provider, nil, 0, logger.NewNop())

	timeline := svc.GetTimeline(context.Background(), "https://cdn/v1.png", "reviewer@agency.test")

	if timeline == nil {
		t.Fatal("timeline = nil, want empty slice")
	}
	if len(timeline) != 0 {
		t.Errorf("timeline length = %d, want 0", len(timeline))
	}
}

func TestGetTimelineEmptyURLSkipsFetch(t *testing.T) {
	provider := &fakeHistoryProvider{}
	svc := NewHistoryService(provider, nil, 0, logger.NewNop())

	timeline := svc.GetTimeline(context.Background(), "", "reviewer@agency.test")

	if len(timeline) != 0 {
		t.Errorf("timeline length = %d, want 0", len(timeline))
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for empty URL", provider.calls)
	}
}

func TestGetTimelineDiscardsStaleResult(t *testing.T) {
	provider := &fakeHistoryProvider{record: &ports.HistoryRecord{
		CurrentURL: "https://cdn/v1.png",
		UpdatedAt:  time.Now(),
	}}
	svc := NewHistoryService(provider, nil, 0, logger.NewNop())

	// The subject changed mid-flight: the context is already cancelled by
	// the time the provider returns.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	timeline := svc.GetTimeline(ctx, "https://cdn/v1.png", "reviewer@agency.test")

	if len(timeline) != 0 {
		t.Errorf("stale result applied: timeline length = %d, want 0", len(timeline))
	}
}

func TestGetTimelineCurrentEntryFallbacks(t *testing.T) {
	created := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	provider := &fakeHistoryProvider{record: &ports.HistoryRecord{
		// No current URL and no updatedAt in the remote payload.
		CreatedAt: created,
	}}
	svc := NewHistoryService(provider, nil, 0, logger.NewNop())

	timeline := svc.GetTimeline(context.Background(), "https://cdn/current.png", "reviewer@agency.test")

	if len(timeline) != 1 {
		t.Fatalf("timeline length = %d, want 1", len(timeline))
	}
	if timeline[0].URL != "https://cdn/current.png" {
		t.Errorf("current URL fallback = %q, want the requested asset URL", timeline[0].URL)
	}
	if !timeline[0].Timestamp.Equal(created) {
		t.Errorf("timestamp fallback = %v, want batch createdAt", timeline[0].Timestamp)
	}
}
