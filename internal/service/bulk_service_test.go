package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coverly/internal/entity"
	"coverly/internal/generator"
)

func waitForBatch(t *testing.T, svc *BulkService, batchID string, userID uint) entity.BulkStatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := svc.Status(batchID, userID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.Done {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("batch did not finish in time")
	return entity.BulkStatusResponse{}
}

func TestBulkRunDebitsPerCompletedItem(t *testing.T) {
	repo := newFakeRepo(&entity.DbUser{ID: 1, Credits: 25})
	gen := &fakeGenerator{fn: func(call int, _ generator.Request) (*generator.Result, error) {
		if call == 2 {
			return nil, errors.New("upstream timeout")
		}
		return &generator.Result{Data: []byte("img"), Extension: "png"}, nil
	}}
	gens := NewGenerationService(repo, &fakeStorage{}, gen, testPublicURL)
	svc := NewBulkService(gens, BulkOptions{ItemDelay: 0, Retention: time.Minute}, nil)

	req := entity.BulkCreateRequest{
		Style: "modern",
		Items: []entity.BulkItemInput{
			{ImageType: entity.ImageTypeBlog, Title: "One", Content: "a"},
			{ImageType: entity.ImageTypeBlog, Title: "Two", Content: "b"},
			{ImageType: entity.ImageTypeBlog, Title: "Three", Content: "c"},
		},
	}
	created, err := svc.Create(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Total != 3 {
		t.Fatalf("total = %d, want 3", created.Total)
	}

	status := waitForBatch(t, svc, created.BatchID, 1)
	if status.Completed != 2 || status.Failed != 1 {
		t.Fatalf("completed=%d failed=%d, want 2/1", status.Completed, status.Failed)
	}
	if status.CreditsUsed != 10 {
		t.Fatalf("credits used = %d, want 10", status.CreditsUsed)
	}
	if status.Items[1].Status != entity.BulkItemFailed || status.Items[1].Error == "" {
		t.Fatalf("item 1 should be failed with an error, got %+v", status.Items[1])
	}
	if status.Items[2].Status != entity.BulkItemCompleted {
		t.Fatalf("item 2 should still run after a failure, got %+v", status.Items[2])
	}

	user, _ := repo.GetUserByID(context.Background(), 1)
	if user.Credits != 15 {
		t.Fatalf("credits = %d, want 15", user.Credits)
	}
	if repo.debitCount() != 2 {
		t.Fatalf("debit count = %d, want 2", repo.debitCount())
	}
}

func TestBulkCreateRejectsWorstCaseOverdraw(t *testing.T) {
	repo := newFakeRepo(&entity.DbUser{ID: 1, Credits: 8})
	gens := NewGenerationService(repo, &fakeStorage{}, &fakeGenerator{}, testPublicURL)
	svc := NewBulkService(gens, BulkOptions{}, nil)

	_, err := svc.Create(context.Background(), 1, entity.BulkCreateRequest{
		Items: []entity.BulkItemInput{
			{ImageType: entity.ImageTypeBlog, Title: "a", Content: "a"},
			{ImageType: entity.ImageTypeBlog, Title: "b", Content: "b"},
		},
	})
	if !errors.Is(err, entity.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
}

func TestBulkCreateValidatesAllItemsUpfront(t *testing.T) {
	repo := newFakeRepo(&entity.DbUser{ID: 1, Credits: 100})
	gen := &fakeGenerator{}
	gens := NewGenerationService(repo, &fakeStorage{}, gen, testPublicURL)
	svc := NewBulkService(gens, BulkOptions{}, nil)

	_, err := svc.Create(context.Background(), 1, entity.BulkCreateRequest{
		Items: []entity.BulkItemInput{
			{ImageType: entity.ImageTypeBlog, Title: "ok", Content: "ok"},
			{ImageType: entity.ImageTypeBlog, Content: "missing title"},
		},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if gen.callCount() != 0 {
		t.Fatalf("webhook called %d times, want 0", gen.callCount())
	}
}

func TestBulkStatusScopedToOwner(t *testing.T) {
	repo := newFakeRepo(&entity.DbUser{ID: 1, Credits: 50})
	gens := NewGenerationService(repo, &fakeStorage{}, &fakeGenerator{}, testPublicURL)
	svc := NewBulkService(gens, BulkOptions{Retention: time.Minute}, nil)

	created, err := svc.Create(context.Background(), 1, entity.BulkCreateRequest{
		Items: []entity.BulkItemInput{{ImageType: entity.ImageTypeBlog, Title: "t", Content: "c"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Status(created.BatchID, 2); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound for foreign user, got %v", err)
	}
	if _, err := svc.Status("no-such-batch", 1); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound for unknown id, got %v", err)
	}
}

func TestBulkNotifierReceivesTransitions(t *testing.T) {
	repo := newFakeRepo(&entity.DbUser{ID: 1, Credits: 50})
	gens := NewGenerationService(repo, &fakeStorage{}, &fakeGenerator{}, testPublicURL)

	var mu sync.Mutex
	var events []entity.BulkStatusResponse
	notify := func(clientID string, status entity.BulkStatusResponse) {
		if clientID != "client-1" {
			t.Errorf("unexpected client id: %q", clientID)
		}
		mu.Lock()
		events = append(events, status)
		mu.Unlock()
	}
	svc := NewBulkService(gens, BulkOptions{Retention: time.Minute}, notify)

	created, err := svc.Create(context.Background(), 1, entity.BulkCreateRequest{
		ClientID: "client-1",
		Items:    []entity.BulkItemInput{{ImageType: entity.ImageTypeBlog, Title: "t", Content: "c"}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	waitForBatch(t, svc, created.BatchID, 1)

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("expected at least one notification")
	}
	last := events[len(events)-1]
	if !last.Done || last.Completed != 1 {
		t.Fatalf("final event done=%v completed=%d, want true/1", last.Done, last.Completed)
	}
}
