package badge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE
// ══════════════════════════════════════════════════════════════════════════════

// Rule - именованное условие получения значка.
// Evaluate должна быть чистой функцией от Facts.
type Rule interface {
	Name() string
	Evaluate(f Facts) bool
}

// Params - параметры правила из каталога.
type Params map[string]string

// Factory создаёт правило из параметров каталога.
type Factory func(p Params) (Rule, error)

// Имена встроенных правил.
const (
	RuleModuleComplete        = "module_complete"
	RuleAllModulesComplete    = "all_modules_complete"
	RuleAnyModuleMinDifficult = "any_module_complete_min_difficulty"
	RuleMilestone             = "milestone"
	RuleKitEssentialsComplete = "kit_essentials_complete"
	RuleLevelAtLeast          = "level_at_least"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUILT-IN RULES
// ══════════════════════════════════════════════════════════════════════════════

type moduleCompleteRule struct{ moduleID string }

// ModuleComplete - указанный модуль пройден на 100%.
func ModuleComplete(moduleID string) Rule { return moduleCompleteRule{moduleID: moduleID} }

func (r moduleCompleteRule) Name() string { return RuleModuleComplete }

func (r moduleCompleteRule) Evaluate(f Facts) bool {
	m, ok := f.Module(r.moduleID)
	return ok && m.Complete
}

type allModulesCompleteRule struct{}

// AllModulesComplete - все модули пройдены на 100%. Для пустого списка - false.
func AllModulesComplete() Rule { return allModulesCompleteRule{} }

func (allModulesCompleteRule) Name() string { return RuleAllModulesComplete }

func (allModulesCompleteRule) Evaluate(f Facts) bool {
	if len(f.Modules) == 0 {
		return false
	}
	for _, m := range f.Modules {
		if !m.Complete {
			return false
		}
	}
	return true
}

type minDifficultyRule struct{ lowest progress.Difficulty }

// AnyModuleCompleteMinDifficulty - хотя бы один модуль сложностью не ниже lowest пройден на 100%.
func AnyModuleCompleteMinDifficulty(lowest progress.Difficulty) Rule {
	return minDifficultyRule{lowest: lowest}
}

func (r minDifficultyRule) Name() string { return RuleAnyModuleMinDifficult }

func (r minDifficultyRule) Evaluate(f Facts) bool {
	for _, m := range f.Modules {
		if m.Complete && m.Difficulty.AtLeast(r.lowest) {
			return true
		}
	}
	return false
}

type milestoneRule struct{ flag string }

// Milestone - установлен флаг достижения.
func Milestone(flag string) Rule { return milestoneRule{flag: flag} }

func (r milestoneRule) Name() string { return RuleMilestone }

func (r milestoneRule) Evaluate(f Facts) bool { return f.HasMilestone(r.flag) }

type kitEssentialsRule struct{}

// KitEssentialsComplete - в наборе выбраны все обязательные предметы.
func KitEssentialsComplete() Rule { return kitEssentialsRule{} }

func (kitEssentialsRule) Name() string { return RuleKitEssentialsComplete }

func (kitEssentialsRule) Evaluate(f Facts) bool { return f.KitEssentialsComplete }

type levelAtLeastRule struct{ level int }

// LevelAtLeast - текущий уровень не ниже указанного.
func LevelAtLeast(level int) Rule { return levelAtLeastRule{level: level} }

func (r levelAtLeastRule) Name() string { return RuleLevelAtLeast }

func (r levelAtLeastRule) Evaluate(f Facts) bool { return f.Level >= r.level }

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Registry сопоставляет имена правил и фабрики.
// Каталог значков ссылается на правила по имени, поэтому новые правила
// добавляются регистрацией, без изменения кода отображения.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry создаёт реестр со встроенными правилами.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories[RuleModuleComplete] = func(p Params) (Rule, error) {
		id, err := p.require(RuleModuleComplete, "module")
		if err != nil {
			return nil, err
		}
		return ModuleComplete(id), nil
	}
	r.factories[RuleAllModulesComplete] = func(Params) (Rule, error) {
		return AllModulesComplete(), nil
	}
	r.factories[RuleAnyModuleMinDifficult] = func(p Params) (Rule, error) {
		raw, err := p.require(RuleAnyModuleMinDifficult, "difficulty")
		if err != nil {
			return nil, err
		}
		d, err := progress.ParseDifficulty(raw)
		if err != nil {
			return nil, shared.WrapError("badge", "Build", shared.ErrInvalidInput, RuleAnyModuleMinDifficult, err)
		}
		return AnyModuleCompleteMinDifficulty(d), nil
	}
	r.factories[RuleMilestone] = func(p Params) (Rule, error) {
		flag, err := p.require(RuleMilestone, "flag")
		if err != nil {
			return nil, err
		}
		return Milestone(flag), nil
	}
	r.factories[RuleKitEssentialsComplete] = func(Params) (Rule, error) {
		return KitEssentialsComplete(), nil
	}
	r.factories[RuleLevelAtLeast] = func(p Params) (Rule, error) {
		raw, err := p.require(RuleLevelAtLeast, "level")
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, shared.WrapError("badge", "Build", shared.ErrInvalidInput,
				fmt.Sprintf("%s: level must be a positive integer, got %q", RuleLevelAtLeast, raw), shared.ErrInvalidRuleArgs)
		}
		return LevelAtLeast(n), nil
	}
	return r
}

// Register добавляет фабрику правила. Повторная регистрация имени - ошибка.
func (r *Registry) Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" || factory == nil {
		return shared.NewDomainError("badge", "Register", shared.ErrInvalidInput, "rule name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return shared.Errorf("badge", "Register", shared.ErrAlreadyExists, "rule %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Build создаёт правило по имени.
func (r *Registry) Build(name string, params Params) (Rule, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, shared.WrapError("badge", "Build", shared.ErrNotFound, "rule "+name, shared.ErrUnknownRule)
	}
	return factory(params)
}

// Names возвращает отсортированные имена зарегистрированных правил.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition - описание значка в каталоге контента.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Tier        string
	Rule        string
	Params      Params
}

// BuildBadge превращает описание каталога в значок с правилом.
func (r *Registry) BuildBadge(def Definition) (Badge, error) {
	if strings.TrimSpace(def.ID) == "" {
		return Badge{}, shared.NewDomainError("badge", "BuildBadge", shared.ErrEmptyValue, "badge id cannot be empty")
	}
	tier, err := ParseTier(def.Tier)
	if err != nil {
		return Badge{}, fmt.Errorf("badge %s: %w", def.ID, err)
	}
	rule, err := r.Build(def.Rule, def.Params)
	if err != nil {
		return Badge{}, fmt.Errorf("badge %s: %w", def.ID, err)
	}
	return Badge{
		ID:          def.ID,
		Title:       def.Title,
		Description: def.Description,
		Icon:        def.Icon,
		Tier:        tier,
		Rule:        rule,
	}, nil
}

func (p Params) require(rule, key string) (string, error) {
	v := strings.TrimSpace(p[key])
	if v == "" {
		return "", shared.WrapError("badge", "Build", shared.ErrInvalidInput,
			fmt.Sprintf("%s: missing parameter %q", rule, key), shared.ErrInvalidRuleArgs)
	}
	return v, nil
}
