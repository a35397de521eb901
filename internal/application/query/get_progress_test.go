package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

type stubAccountRepo struct {
	mu   sync.Mutex
	byID map[string]*account.Account
	hits int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*account.Account)}
}

func (r *stubAccountRepo) Create(ctx context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[acct.ID] = acct
	return nil
}

func (r *stubAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
	acct, ok := r.byID[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acct, nil
}

func (r *stubAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (r *stubAccountRepo) Update(ctx context.Context, acct *account.Account) error {
	return nil
}

func (r *stubAccountRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *stubAccountRepo) List(ctx context.Context, opts account.ListOptions) ([]*account.Account, error) {
	return nil, nil
}

func (r *stubAccountRepo) Count(ctx context.Context, opts account.ListOptions) (int, error) {
	return len(r.byID), nil
}

type stubAccountCache struct {
	mu     sync.Mutex
	cached map[string]*account.Account
	sets   int
}

func newStubAccountCache() *stubAccountCache {
	return &stubAccountCache{cached: make(map[string]*account.Account)}
}

func (c *stubAccountCache) Get(ctx context.Context, accountID string) (*account.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached[accountID], nil
}

func (c *stubAccountCache) Set(ctx context.Context, acct *account.Account, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached[acct.ID] = acct
	c.sets++
	return nil
}

func (c *stubAccountCache) Delete(ctx context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cached, accountID)
	return nil
}

func (c *stubAccountCache) Invalidate(ctx context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cached, accountID)
	return nil
}

func seedProgressAccount(t *testing.T, repo *stubAccountRepo) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(account.NewAccountParams{
		ID:          "bbbb1111-2222-4333-8444-555566667777",
		DisplayName: "Agent Lumen",
		Email:       "lumen@cyberguard.academy",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acct))
	return acct
}

func TestGetProgress_DerivedFields(t *testing.T) {
	repo := newStubAccountRepo()
	acct := seedProgressAccount(t, repo)

	// 2350 XP: уровень 3, внутри уровня 350.
	_, err := acct.AwardExperience(2350)
	require.NoError(t, err)
	_, err = acct.CompleteMission("mission-1")
	require.NoError(t, err)

	handler := NewGetProgressHandler(repo, nil, logger.NewNop())
	dto, err := handler.Handle(context.Background(), GetProgressQuery{AccountID: acct.ID})
	require.NoError(t, err)

	assert.Equal(t, 3, dto.Level)
	assert.Equal(t, 2350, dto.TotalXP)
	assert.Equal(t, 350, dto.XP)
	assert.Equal(t, 650, dto.XPToNextLevel)
	assert.InDelta(t, 0.35, dto.LevelProgress, 0.001)
	assert.Equal(t, 45, dto.RiskScore)
	assert.Equal(t, 1, dto.MissionsDone)
	assert.Equal(t, []string{"mission-1"}, dto.CompletedMissionIDs)
	assert.Equal(t, "Agent Lumen", dto.DisplayName)
}

func TestGetProgress_CachePopulatedOnMiss(t *testing.T) {
	repo := newStubAccountRepo()
	acct := seedProgressAccount(t, repo)
	cache := newStubAccountCache()

	handler := NewGetProgressHandler(repo, cache, logger.NewNop())

	_, err := handler.Handle(context.Background(), GetProgressQuery{AccountID: acct.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.hits)
	assert.Equal(t, 1, cache.sets)

	// Второй запрос обслуживается из кеша, репозиторий не трогается.
	_, err = handler.Handle(context.Background(), GetProgressQuery{AccountID: acct.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.hits)
}

func TestGetProgress_UnknownAccount(t *testing.T) {
	handler := NewGetProgressHandler(newStubAccountRepo(), nil, logger.NewNop())

	_, err := handler.Handle(context.Background(), GetProgressQuery{AccountID: "missing"})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestGetProgress_Validation(t *testing.T) {
	handler := NewGetProgressHandler(newStubAccountRepo(), nil, logger.NewNop())

	_, err := handler.Handle(context.Background(), GetProgressQuery{})
	assert.Error(t, err)
}
