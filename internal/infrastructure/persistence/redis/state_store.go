package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/circuitbreaker"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATE STORE
// Snapshot store for rehydrating progression without touching Postgres.
// The progression journal and the notification feed live in two
// independent blobs keyed by account id: losing or corrupting one must
// never take the other down with it. A missing blob is not an error -
// the caller falls back to defaults. Writes run behind a circuit
// breaker and are non-fatal by contract: the in-memory state stays the
// source of truth when Redis misbehaves.
// ══════════════════════════════════════════════════════════════════════════════

// StateStore implements account.StateStore and notification.FeedStore
// on top of Redis.
type StateStore struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewStateStore creates a new StateStore.
func NewStateStore(cache *Cache, log *logger.Logger) *StateStore {
	s := &StateStore{
		cache: cache,
		log:   log.With(logger.Component("state_store")),
	}
	s.breaker = circuitbreaker.StateStoreBreaker(func(name string, from, to circuitbreaker.State) {
		s.log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// DTOs
// Timestamps travel as RFC3339 strings and are reconstructed on load.
// ══════════════════════════════════════════════════════════════════════════════

type badgeStateDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rarity      string `json:"rarity"`
	EarnedAt    string `json:"earnedAt"`
}

type accountStateDTO struct {
	AccountID           string          `json:"accountId"`
	DisplayName         string          `json:"displayName"`
	Email               string          `json:"email"`
	Avatar              string          `json:"avatar,omitempty"`
	TotalXP             int             `json:"totalXp"`
	Level               int             `json:"level"`
	RiskScore           int             `json:"riskScore"`
	CurrentStreak       int             `json:"currentStreak"`
	Badges              []badgeStateDTO `json:"badges"`
	CompletedMissionIDs []string        `json:"completedMissionIds"`
	CompletedGameIDs    []string        `json:"completedGameIds"`
	MasteredRoleIDs     []string        `json:"masteredRoleIds"`
	HelpCount           int             `json:"helpCount"`
	Status              string          `json:"status"`
	LastActivityAt      string          `json:"lastActivityAt"`
	JoinedAt            string          `json:"joinedAt"`
	SavedAt             string          `json:"savedAt"`
}

type notificationStateDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

type feedStateDTO struct {
	AccountID string                 `json:"accountId"`
	Items     []notificationStateDTO `json:"items"`
	Cap       int                    `json:"cap"`
	SavedAt   string                 `json:"savedAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT STATE
// ══════════════════════════════════════════════════════════════════════════════

// SaveState serializes and stores the progression snapshot.
// A write failure must not stop the calling flow.
func (s *StateStore) SaveState(ctx context.Context, acct *account.Account) error {
	if acct == nil {
		return nil
	}

	dto := accountStateDTO{
		AccountID:           acct.ID,
		DisplayName:         acct.DisplayName,
		Email:               acct.Email,
		Avatar:              acct.Avatar,
		TotalXP:             int(acct.TotalXP),
		Level:               int(acct.Level()),
		RiskScore:           int(acct.RiskScore),
		CurrentStreak:       acct.CurrentStreak,
		Badges:              make([]badgeStateDTO, 0, len(acct.Badges)),
		CompletedMissionIDs: append([]string{}, acct.CompletedMissionIDs...),
		CompletedGameIDs:    append([]string{}, acct.CompletedGameIDs...),
		MasteredRoleIDs:     append([]string{}, acct.MasteredRoleIDs...),
		HelpCount:           acct.HelpCount,
		Status:              string(acct.Status),
		LastActivityAt:      acct.LastActivityAt.UTC().Format(time.RFC3339),
		JoinedAt:            acct.JoinedAt.UTC().Format(time.RFC3339),
		SavedAt:             time.Now().UTC().Format(time.RFC3339),
	}
	for _, b := range acct.Badges {
		dto.Badges = append(dto.Badges, badgeStateDTO{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			Rarity:      string(b.Rarity),
			EarnedAt:    b.EarnedAt.UTC().Format(time.RFC3339),
		})
	}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, StateKey(acct.ID), dto, TTLStateSnapshot)
	})
	if err != nil {
		s.log.Warn("state write failed", logger.Err(err), logger.AccountID(acct.ID))
		return fmt.Errorf("%w: %v", shared.ErrStoreWrite, err)
	}
	return nil
}

// LoadState loads the progression snapshot.
// A missing key is NOT an error: (nil, nil) is returned and the caller
// proceeds with defaults.
func (s *StateStore) LoadState(ctx context.Context, accountID string) (*account.Account, error) {
	var dto accountStateDTO
	if err := s.cache.Get(ctx, StateKey(accountID), &dto); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		if errors.Is(err, ErrCacheSerialization) {
			return nil, fmt.Errorf("%w: %v", shared.ErrStateCorrupt, err)
		}
		return nil, err
	}

	return s.reconstructAccount(dto)
}

// DeleteState removes the progression snapshot.
func (s *StateStore) DeleteState(ctx context.Context, accountID string) error {
	return s.cache.Delete(ctx, StateKey(accountID))
}

func (s *StateStore) reconstructAccount(dto accountStateDTO) (*account.Account, error) {
	lastActivity, err := parseStoredTime(dto.LastActivityAt)
	if err != nil {
		return nil, fmt.Errorf("%w: lastActivityAt: %v", shared.ErrStateCorrupt, err)
	}
	joinedAt, err := parseStoredTime(dto.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: joinedAt: %v", shared.ErrStateCorrupt, err)
	}

	badges := make([]account.Badge, 0, len(dto.Badges))
	for _, b := range dto.Badges {
		earnedAt, err := parseStoredTime(b.EarnedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: badge %s: %v", shared.ErrStateCorrupt, b.ID, err)
		}
		badges = append(badges, account.Badge{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			Rarity:      account.Rarity(b.Rarity),
			EarnedAt:    earnedAt,
		})
	}

	status := account.Status(dto.Status)
	if status == "" {
		status = account.StatusActive
	}

	// Level is not taken from the blob: it is always derived from TotalXP.
	// The risk score passes through the clamp in case the blob predates
	// a range change.
	acct := &account.Account{
		ID:                  dto.AccountID,
		DisplayName:         dto.DisplayName,
		Email:               dto.Email,
		Avatar:              dto.Avatar,
		TotalXP:             account.XP(dto.TotalXP),
		RiskScore:           account.RiskScore(dto.RiskScore).Clamp(),
		CurrentStreak:       dto.CurrentStreak,
		Badges:              badges,
		CompletedMissionIDs: dto.CompletedMissionIDs,
		CompletedGameIDs:    dto.CompletedGameIDs,
		MasteredRoleIDs:     dto.MasteredRoleIDs,
		HelpCount:           dto.HelpCount,
		Status:              status,
		LastActivityAt:      lastActivity,
		JoinedAt:            joinedAt,
		CreatedAt:           joinedAt,
		UpdatedAt:           lastActivity,
	}
	if acct.CompletedMissionIDs == nil {
		acct.CompletedMissionIDs = []string{}
	}
	if acct.CompletedGameIDs == nil {
		acct.CompletedGameIDs = []string{}
	}
	if acct.MasteredRoleIDs == nil {
		acct.MasteredRoleIDs = []string{}
	}
	return acct, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION FEED
// ══════════════════════════════════════════════════════════════════════════════

// SaveFeed serializes and stores the notification feed snapshot.
func (s *StateStore) SaveFeed(ctx context.Context, feed *notification.Feed) error {
	if feed == nil {
		return nil
	}

	dto := feedStateDTO{
		AccountID: feed.AccountID,
		Items:     make([]notificationStateDTO, 0, feed.Len()),
		Cap:       feed.Cap,
		SavedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, n := range feed.Items {
		dto.Items = append(dto.Items, notificationStateDTO{
			ID:        n.ID,
			Type:      string(n.Type),
			Priority:  string(n.Priority),
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
			IsRead:    n.IsRead,
		})
	}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, FeedKey(feed.AccountID), dto, TTLStateSnapshot)
	})
	if err != nil {
		s.log.Warn("feed write failed", logger.Err(err), logger.AccountID(feed.AccountID))
		return fmt.Errorf("%w: %v", shared.ErrStoreWrite, err)
	}
	return nil
}

// LoadFeed loads the feed snapshot. A missing key is NOT an error:
// (nil, nil) is returned.
func (s *StateStore) LoadFeed(ctx context.Context, accountID string) (*notification.Feed, error) {
	var dto feedStateDTO
	if err := s.cache.Get(ctx, FeedKey(accountID), &dto); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		if errors.Is(err, ErrCacheSerialization) {
			return nil, fmt.Errorf("%w: %v", shared.ErrStateCorrupt, err)
		}
		return nil, err
	}

	cap := dto.Cap
	if cap <= 0 {
		cap = notification.DefaultFeedCap
	}
	feed := notification.NewFeedWithCap(accountID, cap)

	for _, item := range dto.Items {
		ts, err := parseStoredTime(item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: notification %s: %v", shared.ErrStateCorrupt, item.ID, err)
		}
		feed.Items = append(feed.Items, &notification.Notification{
			ID:        item.ID,
			AccountID: accountID,
			Type:      notification.Type(item.Type),
			Priority:  notification.Priority(item.Priority),
			Title:     item.Title,
			Message:   item.Message,
			Timestamp: ts,
			IsRead:    item.IsRead,
		})
	}
	return feed, nil
}

// DeleteFeed removes the feed snapshot.
func (s *StateStore) DeleteFeed(ctx context.Context, accountID string) error {
	return s.cache.Delete(ctx, FeedKey(accountID))
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Healthy reports whether the store is reachable and the breaker closed.
func (s *StateStore) Healthy(ctx context.Context) error {
	if s.breaker.IsOpen() {
		return shared.ErrStoreUnhealthy
	}
	return s.cache.Ping(ctx)
}

func parseStoredTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
