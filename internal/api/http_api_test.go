package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coverly/internal/config"
	"coverly/internal/entity"
	"coverly/internal/storage"
)

type stubRepo struct {
	mu            sync.Mutex
	users         map[uint]*entity.DbUser
	usersByEmail  map[string]*entity.DbUser
	subscriptions []*entity.DbSubscriptionRequest
	nextUserID    uint
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:        make(map[uint]*entity.DbUser),
		usersByEmail: make(map[string]*entity.DbUser),
		nextUserID:   1,
	}
}

func (r *stubRepo) CreateUser(_ context.Context, user *entity.DbUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.usersByEmail[user.Email]; exists {
		return gorm.ErrDuplicatedKey
	}
	user.ID = r.nextUserID
	r.nextUserID++
	r.users[user.ID] = user
	r.usersByEmail[user.Email] = user
	return nil
}

func (r *stubRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubRepo) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.usersByEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubRepo) CountUsers(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *stubRepo) AdjustUserCredits(_ context.Context, userID uint, delta int64, _, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if delta < 0 && user.Credits < -delta {
		return user.Credits, entity.ErrInsufficientCredits
	}
	user.Credits += delta
	return user.Credits, nil
}

func (r *stubRepo) CreateSubscriptionRequest(_ context.Context, req *entity.DbSubscriptionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uint(len(r.subscriptions) + 1)
	r.subscriptions = append(r.subscriptions, req)
	return nil
}

func (r *stubRepo) UpdateUser(context.Context, uint, entity.UserUpdates) error { return nil }
func (r *stubRepo) ListUsers(context.Context, *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	return nil, nil, errors.New("not implemented")
}
func (r *stubRepo) DeleteUser(context.Context, uint) error { return nil }
func (r *stubRepo) SetUserCredits(context.Context, uint, int64, string) error {
	return nil
}
func (r *stubRepo) ListCreditEntries(context.Context, uint, *entity.BaseParams) ([]entity.DbCreditEntry, *entity.Meta, error) {
	return nil, &entity.Meta{}, nil
}
func (r *stubRepo) CreateGenerationWithDebit(context.Context, *entity.DbGeneration) error {
	return errors.New("not implemented")
}
func (r *stubRepo) GetGeneration(context.Context, uint) (*entity.DbGeneration, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubRepo) ListGenerations(context.Context, *entity.GenerationQuery) ([]entity.DbGeneration, *entity.Meta, error) {
	return nil, &entity.Meta{}, nil
}
func (r *stubRepo) DeleteGeneration(context.Context, uint) error { return nil }

type nullStorage struct{}

func (nullStorage) Save(context.Context, []byte, storage.SaveOptions) (string, error) {
	return "generations/test/x.png", nil
}

func newTestHandler(t *testing.T, repo *stubRepo) *HTTPHandler {
	t.Helper()
	cfg := config.Config{
		JWTSecret:            "unit-test-secret-0123456789abcdef",
		JWTIssuer:            "coverly-test",
		JWTExpirationMinutes: 60,
		SignupBonusCredits:   25,
		StoragePublicBaseURL: "/files",
	}
	handler, err := NewHTTPHandler(cfg, repo, nullStorage{})
	if err != nil {
		t.Fatalf("NewHTTPHandler failed: %v", err)
	}
	return handler
}

func newTestRouter(handler *HTTPHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/subscribe", handler.Subscribe)
	r.POST("/api/generations", handler.AuthMiddleware(), handler.GenerateImage)
	return r
}

func TestRegisterGrantsSignupBonusAndFirstUserIsSuperAdmin(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(newTestHandler(t, repo))

	body, _ := json.Marshal(map[string]string{
		"email":    "founder@example.com",
		"password": "longenoughpw",
	})
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}

	var resp entity.AuthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.User.Role != entity.UserRoleSuperAdmin {
		t.Fatalf("first user role = %q, want super_admin", resp.User.Role)
	}
	if resp.User.Credits != 25 {
		t.Fatalf("credits = %d, want signup bonus 25", resp.User.Credits)
	}

	// Second registration is open but gets the regular role.
	body, _ = json.Marshal(map[string]string{
		"email":    "writer@example.com",
		"password": "longenoughpw",
	})
	recorder = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("second registration status = %d", recorder.Code)
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Role != entity.UserRoleUser {
		t.Fatalf("second user role = %q, want user", resp.User.Role)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(newTestHandler(t, repo))

	body, _ := json.Marshal(map[string]string{
		"email":    "dup@example.com",
		"password": "longenoughpw",
	})
	for attempt := 0; attempt < 2; attempt++ {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(recorder, req)
		if attempt == 1 {
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("duplicate registration status = %d, want 400", recorder.Code)
			}
			var apiErr APIError
			if err := json.Unmarshal(recorder.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if apiErr.Code != ErrCodeEmailExists {
				t.Fatalf("code = %q, want %q", apiErr.Code, ErrCodeEmailExists)
			}
		}
	}
}

func TestRegisterConcurrentOnlyOneSuperAdmin(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(newTestHandler(t, repo))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{
				"email":    fmt.Sprintf("racer%d@example.com", i),
				"password": "longenoughpw",
			})
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(recorder, req)
		}(i)
	}
	wg.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.users) != workers {
		t.Fatalf("registered %d users, want %d", len(repo.users), workers)
	}
	superAdmins := 0
	for _, user := range repo.users {
		if user.Role == entity.UserRoleSuperAdmin {
			superAdmins++
		}
	}
	if superAdmins != 1 {
		t.Fatalf("super_admin count = %d, want exactly 1", superAdmins)
	}
}

func TestGenerateRequiresAuth(t *testing.T) {
	router := newTestRouter(newTestHandler(t, newStubRepo()))

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestSubscribeStoresRequest(t *testing.T) {
	repo := newStubRepo()
	router := newTestRouter(newTestHandler(t, repo))

	body, _ := json.Marshal(map[string]string{
		"email": "reader@example.com",
		"plan":  "pro",
	})
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if len(repo.subscriptions) != 1 {
		t.Fatalf("stored %d subscription rows, want 1", len(repo.subscriptions))
	}
	if repo.subscriptions[0].Plan != "pro" {
		t.Fatalf("plan = %q, want pro", repo.subscriptions[0].Plan)
	}
}
