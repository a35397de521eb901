package eventhandler

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Когда уровень вырос, в каталоге могли открыться новые миссии, игры и
// роли. Обработчик находит контент с порогом открытия внутри дельты
// уровней и сообщает о нём отдельным уведомлением.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	catalogRepo     catalog.Repository
	notificationSvc notification.Service
	log             *logger.Logger
}

// NewOnLevelUpHandler создаёт обработчик.
func NewOnLevelUpHandler(catalogRepo catalog.Repository, notificationSvc notification.Service, log *logger.Logger) *OnLevelUpHandler {
	return &OnLevelUpHandler{
		catalogRepo:     catalogRepo,
		notificationSvc: notificationSvc,
		log:             log.With(logger.Component("on_level_up")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnLevelUpHandler) Handle(ctx context.Context, event shared.Event) error {
	levelEvent, ok := event.(shared.LevelUpEvent)
	if !ok {
		return nil
	}

	unlocked, err := h.newlyUnlocked(ctx, levelEvent.OldLevel, levelEvent.NewLevel)
	if err != nil {
		h.log.Warn("catalog scan failed", logger.Err(err), logger.AccountID(levelEvent.AggregateID()))
		return err
	}
	if len(unlocked) == 0 {
		return nil
	}

	params := notification.NewNotificationParams{
		AccountID: levelEvent.AggregateID(),
		Type:      notification.TypeInfo,
		Priority:  notification.PriorityMedium,
		Title:     "New Content Unlocked",
		Message:   fmt.Sprintf("Level %d opens up: %s.", levelEvent.NewLevel, strings.Join(unlocked, ", ")),
	}
	if _, err := h.notificationSvc.Push(ctx, params); err != nil {
		h.log.Warn("unlock notification failed", logger.Err(err), logger.AccountID(levelEvent.AggregateID()))
		return err
	}

	h.log.Info("unlock notification sent",
		logger.AccountID(levelEvent.AggregateID()),
		logger.Int("new_level", levelEvent.NewLevel),
		logger.Int("unlocked_items", len(unlocked)),
	)
	return nil
}

// newlyUnlocked собирает названия контента, чей порог открытия попал в
// интервал (oldLevel, newLevel].
func (h *OnLevelUpHandler) newlyUnlocked(ctx context.Context, oldLevel, newLevel int) ([]string, error) {
	var names []string

	missions, err := h.catalogRepo.ListMissions(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range missions {
		if m.UnlockLevel > oldLevel && m.UnlockLevel <= newLevel {
			names = append(names, m.Title)
		}
	}

	games, err := h.catalogRepo.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		if g.UnlockLevel > oldLevel && g.UnlockLevel <= newLevel {
			names = append(names, g.Name)
		}
	}

	roles, err := h.catalogRepo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.UnlockLevel > oldLevel && r.UnlockLevel <= newLevel {
			names = append(names, r.Name+" role")
		}
	}

	return names, nil
}

// HandlerFunc возвращает функцию-обработчик для подписки на шину.
func (h *OnLevelUpHandler) HandlerFunc() shared.EventHandler {
	return h.Handle
}
