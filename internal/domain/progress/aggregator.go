package progress

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Action - что предложить студенту для модуля.
type Action string

const (
	// ActionContinue - модуль не пройден до конца.
	ActionContinue Action = "continue"
	// ActionReview - модуль пройден, можно повторить.
	ActionReview Action = "review"
)

// ModuleSummary - сводка по одному модулю.
type ModuleSummary struct {
	ID         string
	Name       string
	Difficulty Difficulty
	Completed  int
	Total      int

	// Ratio - доля пройденных уроков (0..1).
	Ratio float64

	// IsComplete - все уроки пройдены.
	IsComplete bool

	// Action - "continue" или "review".
	Action Action
}

// Summary - общий прогресс по всем модулям.
type Summary struct {
	// TotalCompleted - сумма пройденных уроков.
	TotalCompleted int

	// TotalLessons - сумма всех уроков.
	TotalLessons int

	// OverallRatio - TotalCompleted / TotalLessons (0 для пустого списка).
	OverallRatio float64

	// CompletedModules - количество полностью пройденных модулей.
	CompletedModules int

	// Modules - сводки в порядке входных модулей.
	Modules []ModuleSummary
}

// Aggregate сворачивает прогресс модулей в общий прогресс.
// Чистая функция: входной срез не изменяется, повторный вызов даёт тот же результат.
// Модуль с TotalLessons <= 0 или CompletedLessons вне [0, TotalLessons] - ошибка.
func Aggregate(modules []Module) (Summary, error) {
	summary := Summary{
		Modules: make([]ModuleSummary, 0, len(modules)),
	}

	for _, m := range modules {
		if err := m.Validate(); err != nil {
			return Summary{}, err
		}

		complete := m.IsComplete()
		action := ActionContinue
		if complete {
			action = ActionReview
			summary.CompletedModules++
		}

		summary.TotalCompleted += m.CompletedLessons
		summary.TotalLessons += m.TotalLessons
		summary.Modules = append(summary.Modules, ModuleSummary{
			ID:         m.ID,
			Name:       m.Name,
			Difficulty: m.Difficulty,
			Completed:  m.CompletedLessons,
			Total:      m.TotalLessons,
			Ratio:      m.Ratio(),
			IsComplete: complete,
			Action:     action,
		})
	}

	summary.OverallRatio = Ratio(summary.TotalCompleted, summary.TotalLessons)
	return summary, nil
}

// Find возвращает сводку модуля по ID.
func (s Summary) Find(moduleID string) (ModuleSummary, bool) {
	for _, m := range s.Modules {
		if m.ID == moduleID {
			return m, true
		}
	}
	return ModuleSummary{}, false
}

// AllComplete возвращает true, если пройдены все модули (и список не пуст).
func (s Summary) AllComplete() bool {
	return len(s.Modules) > 0 && s.CompletedModules == len(s.Modules)
}
