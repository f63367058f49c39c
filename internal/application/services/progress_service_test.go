package services

import (
	"testing"
	"time"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/ports"
)

func progressTask(campaignID int, createdAt time.Time, slots []entities.Slot, copyWritten bool) *entities.Task {
	return &entities.Task{
		CampaignID:  campaignID,
		Slots:       slots,
		CopyWritten: copyWritten,
		CreatedAt:   createdAt,
	}
}

func TestAggregateWeeklyCreativeDepartment(t *testing.T) {
	week31 := time.Date(2025, 7, 30, 10, 0, 0, 0, time.UTC)
	approved := []entities.Slot{{Link: "https://cdn/a.png", Approval: entities.SlotApproved}}
	pending := []entities.Slot{{Link: "https://cdn/b.png", Approval: entities.SlotNotDone}}

	weeks := AggregateWeekly([]*entities.Task{
		progressTask(1, week31, approved, false),
		progressTask(1, week31, pending, false),
		progressTask(1, week31, nil, true), // no slots yet, copy flag irrelevant here
	}, entities.DepartmentDesign)

	if len(weeks) != 1 {
		t.Fatalf("buckets = %d, want 1", len(weeks))
	}
	got := weeks[0]
	want := ports.WeeklyProgress{CampaignID: 1, Week: "2025-W31", Completed: 1, Total: 3}
	if got != want {
		t.Errorf("bucket = %+v, want %+v", got, want)
	}
}

func TestAggregateWeeklyMediaBuyingUsesCopyFlag(t *testing.T) {
	week := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)

	weeks := AggregateWeekly([]*entities.Task{
		progressTask(2, week, nil, true),
		progressTask(2, week, nil, false),
		// Fully approved slots do not count for media buying without the flag.
		progressTask(2, week, []entities.Slot{{Link: "https://cdn/a.png", Approval: entities.SlotApproved}}, false),
	}, entities.DepartmentMediaBuying)

	if len(weeks) != 1 {
		t.Fatalf("buckets = %d, want 1", len(weeks))
	}
	if weeks[0].Completed != 1 || weeks[0].Total != 3 {
		t.Errorf("bucket = %+v, want 1/3", weeks[0])
	}
}

func TestAggregateWeeklyBucketOrdering(t *testing.T) {
	week31 := time.Date(2025, 7, 30, 10, 0, 0, 0, time.UTC)
	week32 := time.Date(2025, 8, 6, 10, 0, 0, 0, time.UTC)

	weeks := AggregateWeekly([]*entities.Task{
		progressTask(3, week31, nil, false),
		progressTask(1, week32, nil, false),
		progressTask(1, week31, nil, false),
		progressTask(2, week32, nil, false),
	}, entities.DepartmentDesign)

	wantOrder := []ports.WeeklyProgress{
		{CampaignID: 1, Week: "2025-W32", Total: 1},
		{CampaignID: 2, Week: "2025-W32", Total: 1},
		{CampaignID: 1, Week: "2025-W31", Total: 1},
		{CampaignID: 3, Week: "2025-W31", Total: 1},
	}
	if len(weeks) != len(wantOrder) {
		t.Fatalf("buckets = %d, want %d", len(weeks), len(wantOrder))
	}
	for i, want := range wantOrder {
		if weeks[i] != want {
			t.Errorf("weeks[%d] = %+v, want %+v", i, weeks[i], want)
		}
	}
}

func TestAggregateWeeklyEmpty(t *testing.T) {
	weeks := AggregateWeekly(nil, entities.DepartmentDesign)
	if len(weeks) != 0 {
		t.Errorf("buckets = %d, want 0", len(weeks))
	}
}
