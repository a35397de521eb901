// Package account содержит доменную модель аккаунта CyberGuard Academy.
//
// Это ядро бизнес-логики системы. Пакет определяет:
//
//   - Сущности (Entities): Account, Badge
//   - Value Objects: XP, Level, RiskScore, Rarity, Status
//   - Интерфейсы репозиториев: Repository, StateStore, Cache
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Инварианты журнала прогресса
//
// Уровень и опыт внутри уровня всегда вычисляются из суммарного опыта:
//
//	level = TotalXP/1000 + 1
//	xp    = TotalXP % 1000
//
// Оценка риска тихо ограничивается диапазоном [0, 100]. Серия активных
// дней меняется только инкрементом и сбросом. Значки и прохождения -
// множества: повторная выдача и повторное прохождение ничего не меняют.
//
// # Пример использования
//
//	acct, err := NewAccount(NewAccountParams{
//	    ID:          uuid.New().String(),
//	    DisplayName: "Alex Chen",
//	    Email:       "alex@cyberguard.academy",
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Начисление опыта
//	change, _ := acct.AwardExperience(1500)
//	if change.LeveledUp() {
//	    event := shared.NewLevelUpEvent(acct.ID, change.OldLevel.Int(), change.NewLevel.Int(), change.NewTotal.Int())
//	    eventBus.Publish(event)
//	}
//
//	// Первое прохождение миссии
//	first, _ := acct.CompleteMission("mission-1")
//	if first {
//	    acct.ImproveRiskScore(2)
//	}
//
// Полный сброс прогресса сохраняет идентичность аккаунта:
//
//	acct.ResetProgress() // уровень 1, риск 45, пустые множества
package account
