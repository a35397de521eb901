// Package eventhandler содержит обработчики доменных событий.
// Обработчики - реактивная часть системы: они реагируют на изменения
// и запускают побочные эффекты вроде уведомлений и сброса кешей.
package eventhandler

import (
	"context"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RISK CHANGED HANDLER
// Следит за пересечением ватерлиний оценки защищённости. Падение ниже
// нижней ватерлинии - сигнал угрозы, рост выше верхней - повод похвалить.
// Уведомления о ватерлиниях живут только здесь, чтобы команды не
// дублировали их при каждом источнике изменения риска.
// ═══════════════════════════════════════════════════════════════════════════

// OnRiskChangedHandler обрабатывает событие изменения оценки риска.
type OnRiskChangedHandler struct {
	notificationSvc notification.Service
	log             *logger.Logger
}

// NewOnRiskChangedHandler создаёт обработчик.
func NewOnRiskChangedHandler(notificationSvc notification.Service, log *logger.Logger) *OnRiskChangedHandler {
	return &OnRiskChangedHandler{
		notificationSvc: notificationSvc,
		log:             log.With(logger.Component("on_risk_changed")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnRiskChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	riskEvent, ok := event.(shared.RiskScoreChangedEvent)
	if !ok {
		return nil
	}

	old := account.RiskScore(riskEvent.OldScore)
	now := account.RiskScore(riskEvent.NewScore)
	low := account.RiskScore(shared.RiskLowWatermark)
	high := account.RiskScore(shared.RiskHighWatermark)

	switch {
	case old > low && now <= low:
		if _, err := h.notificationSvc.Push(ctx, notification.ThreatAlert(riskEvent.AggregateID(), riskEvent.NewScore)); err != nil {
			h.log.Warn("threat alert push failed", logger.Err(err), logger.AccountID(riskEvent.AggregateID()))
			return err
		}
		h.log.Info("threat alert sent",
			logger.AccountID(riskEvent.AggregateID()),
			logger.RiskScore(riskEvent.NewScore),
		)

	case old < high && now >= high:
		if _, err := h.notificationSvc.Push(ctx, notification.RiskImproved(riskEvent.AggregateID(), riskEvent.NewScore)); err != nil {
			h.log.Warn("risk improved push failed", logger.Err(err), logger.AccountID(riskEvent.AggregateID()))
			return err
		}
	}
	return nil
}

// HandlerFunc возвращает функцию-обработчик для подписки на шину.
func (h *OnRiskChangedHandler) HandlerFunc() shared.EventHandler {
	return h.Handle
}
