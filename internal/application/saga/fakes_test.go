package saga

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/achievement"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
)

// In-memory заглушки инфраструктуры для тестов саг.

type fakeAccountRepo struct {
	mu       sync.Mutex
	byID     map[string]*account.Account
	byEmail  map[string]*account.Account
	updates  int
	creates  int
	failNext error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		byID:    make(map[string]*account.Account),
		byEmail: make(map[string]*account.Account),
	}
}

func (r *fakeAccountRepo) put(acct *account.Account) {
	r.byID[acct.ID] = acct
	r.byEmail[strings.ToLower(acct.Email)] = acct
}

func (r *fakeAccountRepo) Create(ctx context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if _, ok := r.byID[acct.ID]; ok {
		return account.ErrAccountAlreadyExists
	}
	r.put(acct)
	r.creates++
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byID[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acct, nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acct, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[acct.ID]; !ok {
		return account.ErrAccountNotFound
	}
	r.put(acct)
	r.updates++
	return nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byID[id]
	if !ok {
		return account.ErrAccountNotFound
	}
	delete(r.byEmail, strings.ToLower(acct.Email))
	delete(r.byID, id)
	return nil
}

func (r *fakeAccountRepo) List(ctx context.Context, opts account.ListOptions) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*account.Account, 0, len(r.byID))
	for _, acct := range r.byID {
		out = append(out, acct)
	}
	return out, nil
}

func (r *fakeAccountRepo) Count(ctx context.Context, opts account.ListOptions) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

type fakeRanking struct {
	mu     sync.Mutex
	scores map[string]int
	fail   error
}

func newFakeRanking() *fakeRanking {
	return &fakeRanking{scores: make(map[string]int)}
}

func (f *fakeRanking) UpdateScore(ctx context.Context, accountID string, totalXP int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.scores[accountID] = totalXP
	return nil
}

func (f *fakeRanking) GetTop(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (f *fakeRanking) GetRank(ctx context.Context, accountID string) (int, error) {
	return 0, nil
}

func (f *fakeRanking) GetNeighbors(ctx context.Context, accountID string, radius int) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (f *fakeRanking) Remove(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores, accountID)
	return nil
}

func (f *fakeRanking) Rebuild(ctx context.Context, scores []leaderboard.Score) error {
	return nil
}

type fakeNotificationService struct {
	mu       sync.Mutex
	pushed   []notification.NewNotificationParams
	failPush error
}

func newFakeNotificationService() *fakeNotificationService {
	return &fakeNotificationService{}
}

func (f *fakeNotificationService) Push(ctx context.Context, params notification.NewNotificationParams) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPush != nil {
		return nil, f.failPush
	}
	f.pushed = append(f.pushed, params)
	if params.ID == "" {
		params.ID = fmt.Sprintf("n-%d", len(f.pushed))
	}
	return notification.NewNotification(params)
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, accountID, notificationID string) error {
	return nil
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, accountID string) (int, error) {
	return 0, nil
}

func (f *fakeNotificationService) Feed(ctx context.Context, accountID string, limit int) (*notification.Feed, error) {
	return notification.NewFeed(accountID), nil
}

func (f *fakeNotificationService) pushedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, 0, len(f.pushed))
	for _, p := range f.pushed {
		titles = append(titles, p.Title)
	}
	return titles
}

type fakeStateStore struct {
	mu    sync.Mutex
	saved map[string]*account.Account
	fail  error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{saved: make(map[string]*account.Account)}
}

func (f *fakeStateStore) SaveState(ctx context.Context, acct *account.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.saved[acct.ID] = acct
	return nil
}

func (f *fakeStateStore) LoadState(ctx context.Context, accountID string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Отсутствие снимка - не ошибка.
	return f.saved[accountID], nil
}

func (f *fakeStateStore) DeleteState(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, accountID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{}
}

func (f *fakePublisher) Publish(ctx context.Context, event shared.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []shared.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]shared.EventType, 0, len(f.events))
	for _, ev := range f.events {
		types = append(types, ev.EventType())
	}
	return types
}

type fakeAchievementRepo struct {
	mu       sync.Mutex
	unlocked map[string]achievement.UnlockedSet
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{unlocked: make(map[string]achievement.UnlockedSet)}
}

func (r *fakeAchievementRepo) GetUnlocked(ctx context.Context, accountID string) (achievement.UnlockedSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := achievement.UnlockedSet{}
	for id, rec := range r.unlocked[accountID] {
		set[id] = rec
	}
	return set, nil
}

func (r *fakeAchievementRepo) SaveUnlocked(ctx context.Context, record achievement.Unlocked) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.unlocked[record.AccountID]
	if !ok {
		set = achievement.UnlockedSet{}
		r.unlocked[record.AccountID] = set
	}
	set.Add(record)
	return nil
}

func (r *fakeAchievementRepo) DeleteAllForAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unlocked, accountID)
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string][]*session.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string][]*session.Session)}
}

func (r *fakeSessionRepo) Save(ctx context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.AccountID] = append(r.sessions[s.AccountID], s)
	return nil
}

func (r *fakeSessionRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.sessions[accountID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *fakeSessionRepo) ListByAccountSince(ctx context.Context, accountID string, since time.Time) ([]*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.Session
	for _, s := range r.sessions[accountID] {
		if s.StartedAt.After(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CountByAccount(ctx context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions[accountID]), nil
}

func (r *fakeSessionRepo) DeleteAllForAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, accountID)
	return nil
}

type seqIDGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *seqIDGenerator) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", g.next)
}
