package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"coverly/internal/entity"
	"coverly/internal/generator"
	"coverly/internal/utils"
)

// ErrBatchNotFound is returned for unknown or expired batch IDs, and for
// batches owned by another user.
var ErrBatchNotFound = errors.New("bulk batch not found")

// BulkNotifier receives a status snapshot on every batch transition. The
// client ID comes from the submitting request and routes server-sent events.
type BulkNotifier func(clientID string, status entity.BulkStatusResponse)

// BulkOptions tunes the bulk runner.
type BulkOptions struct {
	// ItemDelay is the pause between consecutive webhook calls.
	ItemDelay time.Duration
	// Retention is how long a finished batch stays queryable.
	Retention time.Duration
}

type bulkBatch struct {
	id        string
	userID    uint
	clientID  string
	createdAt time.Time

	inputs []entity.BulkItemInput

	mu          sync.Mutex
	items       []entity.BulkItemState
	imagePaths  []string
	done        bool
	completed   int
	failed      int
	creditsUsed int64
}

func (b *bulkBatch) snapshot() entity.BulkStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]entity.BulkItemState, len(b.items))
	copy(items, b.items)
	return entity.BulkStatusResponse{
		BatchID:     b.id,
		Done:        b.done,
		Total:       len(b.items),
		Completed:   b.completed,
		Failed:      b.failed,
		CreditsUsed: b.creditsUsed,
		Items:       items,
		CreatedAt:   b.createdAt,
	}
}

// BulkService runs multi-item generation batches. Batches live in memory
// only; a restart loses progress but never loses money because each item is
// debited individually on success.
type BulkService struct {
	gens   *GenerationService
	opts   BulkOptions
	notify BulkNotifier

	mu      sync.Mutex
	batches map[string]*bulkBatch
}

func NewBulkService(gens *GenerationService, opts BulkOptions, notify BulkNotifier) *BulkService {
	if opts.ItemDelay < 0 {
		opts.ItemDelay = 0
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	return &BulkService{
		gens:    gens,
		opts:    opts,
		notify:  notify,
		batches: make(map[string]*bulkBatch),
	}
}

// itemForm merges batch-level style and colour into one item.
func itemForm(item entity.BulkItemInput, req entity.BulkCreateRequest) entity.GenerateImageRequest {
	style := item.Style
	if style == "" {
		style = req.Style
	}
	colour := item.Colour
	if colour == "" {
		colour = req.Colour
	}
	return entity.GenerateImageRequest{
		ImageType: item.ImageType,
		Title:     item.Title,
		Content:   item.Content,
		Style:     style,
		Colour:    colour,
		ImageURL:  item.ImageURL,
		ImageSize: item.ImageSize,
		UseBrand:  item.UseBrand,
	}
}

// Estimate returns the worst-case credit cost of a bulk request.
func Estimate(req entity.BulkCreateRequest) int64 {
	var total int64
	for _, item := range req.Items {
		total += generator.CreditCost(generator.Form{
			ImageType: utils.SanitizeText(item.ImageType),
			ImageURL:  utils.SanitizeText(item.ImageURL),
		})
	}
	return total
}

// Create validates every item, checks the worst-case cost against the user's
// balance and starts the batch in the background.
func (s *BulkService) Create(ctx context.Context, userID uint, req entity.BulkCreateRequest) (entity.BulkStatusResponse, error) {
	if len(req.Items) == 0 {
		return entity.BulkStatusResponse{}, errors.New("bulk request has no items")
	}

	for _, item := range req.Items {
		form := buildForm(itemForm(item, req))
		if err := generator.ValidateForm(form); err != nil {
			return entity.BulkStatusResponse{}, err
		}
	}

	user, err := s.gens.repo.GetUserByID(ctx, userID)
	if err != nil {
		return entity.BulkStatusResponse{}, err
	}
	if estimate := Estimate(req); user.Credits < estimate {
		return entity.BulkStatusResponse{}, entity.ErrInsufficientCredits
	}

	batch := &bulkBatch{
		id:         uuid.NewString(),
		userID:     userID,
		clientID:   req.ClientID,
		createdAt:  time.Now(),
		inputs:     make([]entity.BulkItemInput, len(req.Items)),
		items:      make([]entity.BulkItemState, len(req.Items)),
		imagePaths: make([]string, len(req.Items)),
	}
	copy(batch.inputs, req.Items)
	for i, item := range req.Items {
		batch.items[i] = entity.BulkItemState{
			Index:     i,
			Title:     utils.SanitizeText(item.Title),
			ImageType: utils.SanitizeText(item.ImageType),
			Status:    entity.BulkItemPending,
		}
	}

	s.mu.Lock()
	s.batches[batch.id] = batch
	s.mu.Unlock()

	go s.run(batch, req)

	return batch.snapshot(), nil
}

func (s *BulkService) run(batch *bulkBatch, req entity.BulkCreateRequest) {
	log := logrus.WithFields(logrus.Fields{
		"batch_id": batch.id,
		"user_id":  batch.userID,
		"total":    len(batch.inputs),
	})
	log.Info("bulk batch started")

	for i, input := range batch.inputs {
		if i > 0 && s.opts.ItemDelay > 0 {
			time.Sleep(s.opts.ItemDelay)
		}

		batch.mu.Lock()
		batch.items[i].Status = entity.BulkItemProcessing
		batch.mu.Unlock()
		s.publish(batch)

		gen, _, err := s.gens.Generate(context.Background(), batch.userID, itemForm(input, req))

		batch.mu.Lock()
		if err != nil {
			batch.items[i].Status = entity.BulkItemFailed
			batch.items[i].Error = err.Error()
			batch.failed++
		} else {
			batch.items[i].Status = entity.BulkItemCompleted
			batch.items[i].URL = s.gens.PublicURL(gen.ImagePath)
			batch.items[i].CreditsUsed = gen.CreditsUsed
			batch.imagePaths[i] = gen.ImagePath
			batch.completed++
			batch.creditsUsed += gen.CreditsUsed
		}
		batch.mu.Unlock()

		if err != nil {
			log.WithError(err).WithField("index", i).Warn("bulk item failed")
		}
		s.publish(batch)
	}

	batch.mu.Lock()
	batch.done = true
	batch.mu.Unlock()
	s.publish(batch)

	snap := batch.snapshot()
	log.WithFields(logrus.Fields{
		"completed":    snap.Completed,
		"failed":       snap.Failed,
		"credits_used": snap.CreditsUsed,
	}).Info("bulk batch finished")

	time.AfterFunc(s.opts.Retention, func() {
		s.mu.Lock()
		delete(s.batches, batch.id)
		s.mu.Unlock()
	})
}

func (s *BulkService) publish(batch *bulkBatch) {
	if s.notify == nil || batch.clientID == "" {
		return
	}
	s.notify(batch.clientID, batch.snapshot())
}

func (s *BulkService) lookup(batchID string, userID uint) (*bulkBatch, error) {
	s.mu.Lock()
	batch, ok := s.batches[batchID]
	s.mu.Unlock()
	if !ok || batch.userID != userID {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// Status returns a snapshot of the batch, scoped to its owner.
func (s *BulkService) Status(batchID string, userID uint) (entity.BulkStatusResponse, error) {
	batch, err := s.lookup(batchID, userID)
	if err != nil {
		return entity.BulkStatusResponse{}, err
	}
	return batch.snapshot(), nil
}

// CompletedImages lists the stored image paths of completed items in batch
// order, paired with their display titles.
func (s *BulkService) CompletedImages(batchID string, userID uint) ([]ArchiveEntry, error) {
	batch, err := s.lookup(batchID, userID)
	if err != nil {
		return nil, err
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()

	var entries []ArchiveEntry
	for i, item := range batch.items {
		if item.Status != entity.BulkItemCompleted || batch.imagePaths[i] == "" {
			continue
		}
		entries = append(entries, ArchiveEntry{
			Index: i,
			Title: item.Title,
			Path:  batch.imagePaths[i],
		})
	}
	return entries, nil
}
