package achievement

import (
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// Вычисляет достижения до неподвижной точки: награда опытом может
// поднять уровень и открыть следующие достижения, поэтому проходы
// повторяются, пока очередной проход ничего не выдаёт.
// ══════════════════════════════════════════════════════════════════════════════

// Stats - агрегированная статистика активности для условий, которые
// нельзя вычислить из одного журнала прогресса.
type Stats struct {
	// BestAccuracyByCategory - лучшая точность в мини-играх по категориям.
	BestAccuracyByCategory map[string]int

	// BestAccuracy - лучшая точность среди всех мини-игр.
	BestAccuracy int

	// FastestMissionTime - лучшее время прохождения миссии (0 - нет данных).
	FastestMissionTime time.Duration

	// NightActivityCount - число активностей в ночные часы (00:00-05:59).
	NightActivityCount int

	// SecretSequenceDone - выполнена ли секретная последовательность.
	SecretSequenceDone bool
}

// Grant - результат разблокировки одного достижения.
type Grant struct {
	// Definition - разблокированное определение.
	Definition *Definition

	// Record - факт разблокировки.
	Record Unlocked

	// LevelChange - изменение уровня от награды опытом.
	LevelChange account.LevelChange

	// Pass - номер прохода вычислителя, на котором выдано достижение.
	Pass int
}

// Evaluator вычисляет достижения над каталогом определений.
type Evaluator struct {
	definitions []*Definition

	// maxPasses страхует от зацикливания при некорректном каталоге.
	maxPasses int
}

// NewEvaluator создаёт вычислитель. Определения с ошибками валидации
// отбрасываются.
func NewEvaluator(definitions []*Definition) *Evaluator {
	valid := make([]*Definition, 0, len(definitions))
	for _, d := range definitions {
		if err := d.Validate(); err == nil {
			valid = append(valid, d)
		}
	}
	return &Evaluator{
		definitions: valid,
		maxPasses:   len(valid) + 1,
	}
}

// Evaluate прогоняет каталог до неподвижной точки и возвращает новые
// разблокировки в порядке выдачи. Награда опытом начисляется через
// acct.AwardExperience - это единственный путь изменения XP, поэтому
// двойного начисления быть не может. Секретные достижения вычисляются
// наравне с остальными.
func (e *Evaluator) Evaluate(acct *account.Account, stats Stats, unlocked UnlockedSet) ([]Grant, error) {
	if unlocked == nil {
		unlocked = UnlockedSet{}
	}

	grants := []Grant{}

	for pass := 1; pass <= e.maxPasses; pass++ {
		grantedThisPass := false

		for _, def := range e.definitions {
			if unlocked.Contains(def.ID) {
				continue
			}
			if !e.satisfied(def, acct, stats) {
				continue
			}

			change, err := acct.AwardExperience(def.RewardXP)
			if err != nil {
				return grants, err
			}

			record := Unlocked{
				AchievementID: def.ID,
				AccountID:     acct.ID,
				UnlockedAt:    time.Now().UTC(),
			}
			unlocked.Add(record)
			grants = append(grants, Grant{
				Definition:  def,
				Record:      record,
				LevelChange: change,
				Pass:        pass,
			})
			grantedThisPass = true
		}

		if !grantedThisPass {
			break
		}
	}

	return grants, nil
}

// satisfied проверяет все условия определения (конъюнкция).
func (e *Evaluator) satisfied(def *Definition, acct *account.Account, stats Stats) bool {
	for _, req := range def.Requirements {
		if !e.requirementMet(req, acct, stats) {
			return false
		}
	}
	return true
}

func (e *Evaluator) requirementMet(req Requirement, acct *account.Account, stats Stats) bool {
	switch req.Type {
	case RequirementMissionsCompleted:
		return acct.MissionsCompleted() >= req.Value

	case RequirementDailyStreak:
		return acct.CurrentStreak >= req.Value

	case RequirementGameAccuracy:
		best := stats.BestAccuracy
		if req.Category != "" {
			best = stats.BestAccuracyByCategory[req.Category]
		}
		return best >= req.Value

	case RequirementMissionTime:
		if stats.FastestMissionTime <= 0 {
			return false
		}
		return stats.FastestMissionTime <= time.Duration(req.Value)*time.Second

	case RequirementTimeOfDay:
		return stats.NightActivityCount >= req.Value

	case RequirementHelpOthers:
		return acct.HelpCount >= req.Value

	case RequirementRoleMastery:
		return len(acct.MasteredRoleIDs) >= req.Value

	case RequirementSecretSequence:
		return stats.SecretSequenceDone

	default:
		return false
	}
}
