package eventhandler

import (
	"context"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Любое событие, меняющее журнал прогресса, делает кешированный аккаунт
// устаревшим. Обработчик сбрасывает кеш, чтобы запросы прогресса не
// отдавали старый уровень после начисления опыта.
// ═══════════════════════════════════════════════════════════════════════════

// OnProgressChangedHandler сбрасывает кеш аккаунта после событий прогресса.
type OnProgressChangedHandler struct {
	cache account.Cache
	log   *logger.Logger
}

// NewOnProgressChangedHandler создаёт обработчик.
func NewOnProgressChangedHandler(cache account.Cache, log *logger.Logger) *OnProgressChangedHandler {
	return &OnProgressChangedHandler{
		cache: cache,
		log:   log.With(logger.Component("on_progress_changed")),
	}
}

// WatchedEvents возвращает типы событий, на которые подписывается
// обработчик.
func (h *OnProgressChangedHandler) WatchedEvents() []shared.EventType {
	return []shared.EventType{
		shared.EventXPGained,
		shared.EventLevelUp,
		shared.EventMissionCompleted,
		shared.EventGameCompleted,
		shared.EventBadgeEarned,
		shared.EventStreakUpdated,
		shared.EventStreakReset,
		shared.EventRiskScoreChanged,
		shared.EventAchievementUnlocked,
		shared.EventProgressReset,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnProgressChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	accountID := event.AggregateID()
	if accountID == "" {
		return nil
	}

	if err := h.cache.Invalidate(ctx, accountID); err != nil {
		h.log.Warn("cache invalidation failed", logger.Err(err), logger.AccountID(accountID))
		return err
	}
	return nil
}

// HandlerFunc возвращает функцию-обработчик для подписки на шину.
func (h *OnProgressChangedHandler) HandlerFunc() shared.EventHandler {
	return h.Handle
}
