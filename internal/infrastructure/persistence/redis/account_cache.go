package redis

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// AccountCache implements account.Cache on top of Redis.
// It is a read-through helper for the query side: the aggregate is
// cached as a JSON blob with a short TTL and invalidated by the
// progress-changed event handler after every write.
type AccountCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewAccountCache creates a new AccountCache.
func NewAccountCache(cache *Cache, log *logger.Logger) *AccountCache {
	return &AccountCache{
		cache: cache,
		log:   log.With(logger.Component("account_cache")),
	}
}

// cachedAccount mirrors the aggregate with json tags. The level is not
// stored: it is always derived from TotalXP after load.
type cachedAccount struct {
	ID                  string          `json:"id"`
	DisplayName         string          `json:"displayName"`
	Email               string          `json:"email"`
	Avatar              string          `json:"avatar,omitempty"`
	TotalXP             int             `json:"totalXp"`
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
}

// Get returns the cached aggregate or shared.IsNotFound-compatible miss.
func (ac *AccountCache) Get(ctx context.Context, accountID string) (*account.Account, error) {
	var dto cachedAccount
	if err := ac.cache.Get(ctx, AccountKey(accountID), &dto); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}

	lastActivity, err := parseStoredTime(dto.LastActivityAt)
	if err != nil {
		// Unreadable entry: treat as a miss so the caller reloads from
		// the repository and overwrites it.
		ac.log.Warn("dropping unreadable cache entry", logger.AccountID(accountID), logger.Err(err))
		_ = ac.Delete(ctx, accountID)
		return nil, account.ErrAccountNotFound
	}
	joinedAt, err := parseStoredTime(dto.JoinedAt)
	if err != nil {
		ac.log.Warn("dropping unreadable cache entry", logger.AccountID(accountID), logger.Err(err))
		_ = ac.Delete(ctx, accountID)
		return nil, account.ErrAccountNotFound
	}

	badges := make([]account.Badge, 0, len(dto.Badges))
	for _, b := range dto.Badges {
		earnedAt, err := parseStoredTime(b.EarnedAt)
		if err != nil {
			continue
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

	return &account.Account{
		ID:                  dto.ID,
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
		Status:              account.Status(dto.Status),
		LastActivityAt:      lastActivity,
		JoinedAt:            joinedAt,
	}, nil
}

// Set stores the aggregate with the given TTL.
// The password hash never enters the cache.
func (ac *AccountCache) Set(ctx context.Context, acct *account.Account, ttl time.Duration) error {
	if acct == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLAccountCache
	}

	dto := cachedAccount{
		ID:                  acct.ID,
		DisplayName:         acct.DisplayName,
		Email:               acct.Email,
		Avatar:              acct.Avatar,
		TotalXP:             int(acct.TotalXP),
		RiskScore:           int(acct.RiskScore),
		CurrentStreak:       acct.CurrentStreak,
		Badges:              make([]badgeStateDTO, 0, len(acct.Badges)),
		CompletedMissionIDs: acct.CompletedMissionIDs,
		CompletedGameIDs:    acct.CompletedGameIDs,
		MasteredRoleIDs:     acct.MasteredRoleIDs,
		HelpCount:           acct.HelpCount,
		Status:              string(acct.Status),
		LastActivityAt:      acct.LastActivityAt.UTC().Format(time.RFC3339),
		JoinedAt:            acct.JoinedAt.UTC().Format(time.RFC3339),
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

	return ac.cache.Set(ctx, AccountKey(acct.ID), dto, ttl)
}

// Delete removes the cached aggregate.
func (ac *AccountCache) Delete(ctx context.Context, accountID string) error {
	return ac.cache.Delete(ctx, AccountKey(accountID))
}

// Invalidate drops every cached key tied to the account.
func (ac *AccountCache) Invalidate(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	return ac.cache.DeleteByPattern(ctx, AccountKey(accountID)+"*")
}
