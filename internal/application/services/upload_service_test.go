package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/adapters/repository"
	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// fakeTransport completes immediately with a fixed URL unless blocking,
// in which case it reports progress and waits for cancellation.
type fakeTransport struct {
	url      string
	err      error
	blocking bool
	started  chan struct{}
}

func (f *fakeTransport) Upload(ctx context.Context, req ports.UploadRequest, progress func(percent int)) (string, error) {
	if f.blocking {
		progress(37)
		close(f.started)
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	progress(100)
	return f.url, nil
}

func newUploadFixture(t *testing.T, transport ports.UploadTransport) (*UploadService, *entities.User, *entities.Task) {
	t.Helper()

	store := repository.NewMemoryStore()
	ctx := context.Background()

	assignee := &entities.User{
		Email:      "designer@agency.test",
		Username:   "designer",
		Name:       "Designer",
		Role:       entities.UserRoleTeamMember,
		Department: entities.DepartmentDesign,
		IsActive:   true,
	}
	if err := store.Users().Create(ctx, assignee); err != nil {
		t.Fatalf("create user: %v", err)
	}

	campaign := &entities.Campaign{Name: "Summer Sale", Client: "Acme"}
	if err := store.Campaigns().Create(ctx, campaign); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	task := &entities.Task{
		Title:      "Launch banner",
		CampaignID: campaign.ID,
		AssigneeID: assignee.ID,
		Type:       entities.TaskTypeImage,
		Quantity:   "2x",
		Status:     entities.TaskStatusInProgress,
		Priority:   entities.TaskPriorityNormal,
	}
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	log := logger.NewNop()
	taskService := NewTaskService(store.Tasks(), store.Campaigns(), store.Users(), log)
	svc := NewUploadService(transport, taskService, store.Tasks(), store.Users(), store.Campaigns(), log)

	return svc, assignee, task
}

func TestUploadSuccessReplacesSlotLink(t *testing.T) {
	transport := &fakeTransport{url: "https://cdn.test/summer-sale/banner-v2.png"}
	svc, actor, task := newUploadFixture(t, transport)

	updated, err := svc.Upload(context.Background(), actor, task.ID, 1, "banner-v2.png", "image/png", 42, strings.NewReader("png bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	slot := updated.SlotAt(1)
	if slot.Link != transport.url {
		t.Errorf("slot link = %q, want %q", slot.Link, transport.url)
	}
	if slot.Approval != entities.SlotNotDone {
		t.Errorf("new version approval = %q, want not_done", slot.Approval)
	}

	// Completed uploads leave no progress entry behind.
	if _, ok := svc.Progress(UploadKey(task.ID, 1)); ok {
		t.Error("progress entry survived completed upload")
	}
}

func TestUploadRejectsForeignActor(t *testing.T) {
	transport := &fakeTransport{url: "https://cdn.test/x.png"}
	svc, _, task := newUploadFixture(t, transport)

	stranger := &entities.User{
		ID:   uuid.New(),
		Role: entities.UserRoleTeamMember,
	}
	_, err := svc.Upload(context.Background(), stranger, task.ID, 0, "x.png", "image/png", 1, strings.NewReader("x"))
	if !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("Upload() error = %v, want ErrUnauthorized", err)
	}
}

func TestUploadCancelAppliesNothing(t *testing.T) {
	transport := &fakeTransport{blocking: true, started: make(chan struct{})}
	svc, actor, task := newUploadFixture(t, transport)
	key := UploadKey(task.ID, 0)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upload(context.Background(), actor, task.ID, 0, "slow.png", "image/png", 1<<20, strings.NewReader("..."))
		done <- err
	}()

	<-transport.started

	if percent, ok := svc.Progress(key); !ok || percent != 37 {
		t.Errorf("Progress(%q) = %d, %v, want 37, true", key, percent, ok)
	}

	if err := svc.CancelUpload(key); err != nil {
		t.Fatalf("CancelUpload() error = %v", err)
	}
	if err := <-done; !errors.Is(err, ErrUploadCancelled) {
		t.Fatalf("Upload() error = %v, want ErrUploadCancelled", err)
	}

	// The slot keeps whatever it had before the attempt.
	stored, err := svc.taskRepo.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if link := stored.SlotAt(0).Link; link != "" {
		t.Errorf("slot link after cancel = %q, want empty", link)
	}
	if _, ok := svc.Progress(key); ok {
		t.Error("progress entry survived cancellation")
	}
}

func TestCancelUnknownUpload(t *testing.T) {
	svc, _, _ := newUploadFixture(t, &fakeTransport{})
	if err := svc.CancelUpload("99-0"); !errors.Is(err, entities.ErrUploadNotFound) {
		t.Fatalf("CancelUpload() error = %v, want ErrUploadNotFound", err)
	}
}

func TestUploadDuplicateKeyRejected(t *testing.T) {
	transport := &fakeTransport{blocking: true, started: make(chan struct{})}
	svc, actor, task := newUploadFixture(t, transport)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upload(context.Background(), actor, task.ID, 0, "a.png", "image/png", 1, strings.NewReader("a"))
		done <- err
	}()
	<-transport.started

	_, err := svc.Upload(context.Background(), actor, task.ID, 0, "b.png", "image/png", 1, strings.NewReader("b"))
	if err == nil || !strings.Contains(err.Error(), "already in flight") {
		t.Fatalf("second Upload() error = %v, want in-flight rejection", err)
	}

	if err := svc.CancelUpload(UploadKey(task.ID, 0)); err != nil {
		t.Fatalf("CancelUpload() error = %v", err)
	}
	<-done
}

func TestListProgress(t *testing.T) {
	transport := &fakeTransport{blocking: true, started: make(chan struct{})}
	svc, actor, task := newUploadFixture(t, transport)

	if got := svc.ListProgress(); len(got) != 0 {
		t.Fatalf("ListProgress() = %v, want empty", got)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Upload(context.Background(), actor, task.ID, 1, "a.png", "image/png", 1, strings.NewReader("a"))
		done <- err
	}()
	<-transport.started

	statuses := svc.ListProgress()
	if len(statuses) != 1 {
		t.Fatalf("ListProgress() returned %d entries, want 1", len(statuses))
	}
	if statuses[0].Key != UploadKey(task.ID, 1) || statuses[0].Percent != 37 {
		t.Errorf("ListProgress()[0] = %+v", statuses[0])
	}

	if err := svc.CancelUpload(UploadKey(task.ID, 1)); err != nil {
		t.Fatalf("CancelUpload() error = %v", err)
	}
	<-done
}
