package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coverly/internal/entity"
	"coverly/internal/generator"
	"coverly/internal/storage"
)

// fakeRepo keeps users and generations in memory and mirrors the transactional
// debit semantics of the SQL repository.
type fakeRepo struct {
	mu          sync.Mutex
	users       map[uint]*entity.DbUser
	generations []*entity.DbGeneration
	ledger      []entity.DbCreditEntry
	nextGenID   uint
}

func newFakeRepo(users ...*entity.DbUser) *fakeRepo {
	repo := &fakeRepo{users: make(map[uint]*entity.DbUser), nextGenID: 1}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	clone := *user
	return &clone, nil
}

func (r *fakeRepo) CreateGenerationWithDebit(_ context.Context, gen *entity.DbGeneration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[gen.UserID]
	if !ok {
		return errors.New("user not found")
	}
	if user.Credits < gen.CreditsUsed {
		return entity.ErrInsufficientCredits
	}
	user.Credits -= gen.CreditsUsed
	gen.ID = r.nextGenID
	r.nextGenID++
	r.generations = append(r.generations, gen)
	r.ledger = append(r.ledger, entity.DbCreditEntry{
		UserID:       gen.UserID,
		Delta:        -gen.CreditsUsed,
		Reason:       entity.CreditReasonGeneration,
		GenerationID: &gen.ID,
	})
	return nil
}

func (r *fakeRepo) debitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ledger)
}

func (r *fakeRepo) CreateUser(context.Context, *entity.DbUser) error { return errNotImplemented }
func (r *fakeRepo) UpdateUser(context.Context, uint, entity.UserUpdates) error {
	return errNotImplemented
}
func (r *fakeRepo) GetUserByEmail(context.Context, string) (*entity.DbUser, error) {
	return nil, errNotImplemented
}
func (r *fakeRepo) ListUsers(context.Context, *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	return nil, nil, errNotImplemented
}
func (r *fakeRepo) DeleteUser(context.Context, uint) error     { return errNotImplemented }
func (r *fakeRepo) CountUsers(context.Context) (int64, error)  { return 0, errNotImplemented }
func (r *fakeRepo) AdjustUserCredits(context.Context, uint, int64, string, string) (int64, error) {
	return 0, errNotImplemented
}
func (r *fakeRepo) SetUserCredits(context.Context, uint, int64, string) error {
	return errNotImplemented
}
func (r *fakeRepo) ListCreditEntries(context.Context, uint, *entity.BaseParams) ([]entity.DbCreditEntry, *entity.Meta, error) {
	return nil, nil, errNotImplemented
}
func (r *fakeRepo) GetGeneration(context.Context, uint) (*entity.DbGeneration, error) {
	return nil, errNotImplemented
}
func (r *fakeRepo) ListGenerations(context.Context, *entity.GenerationQuery) ([]entity.DbGeneration, *entity.Meta, error) {
	return nil, nil, errNotImplemented
}
func (r *fakeRepo) DeleteGeneration(context.Context, uint) error { return errNotImplemented }
func (r *fakeRepo) CreateSubscriptionRequest(context.Context, *entity.DbSubscriptionRequest) error {
	return errNotImplemented
}

var errNotImplemented = errors.New("not implemented in fake")

// fakeStorage records saved payloads and hands back deterministic keys.
type fakeStorage struct {
	mu    sync.Mutex
	saved [][]byte
}

func (s *fakeStorage) Save(_ context.Context, data []byte, opts storage.SaveOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, data)
	return fmt.Sprintf("%s/test/%d.%s", opts.Category, len(s.saved), opts.Extension), nil
}

// fakeGenerator returns canned results per call index.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, req generator.Request) (*generator.Result, error)
}

func (g *fakeGenerator) Generate(_ context.Context, req generator.Request) (*generator.Result, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	if g.fn != nil {
		return g.fn(call, req)
	}
	return &generator.Result{Data: []byte("img"), Extension: "png"}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testPublicURL(path string) string {
	return "/files/" + path
}
