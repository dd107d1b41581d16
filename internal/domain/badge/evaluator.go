package badge

import (
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Status - значок и вычисленный статус.
type Status struct {
	Badge  Badge
	Earned bool
}

// Result - результат оценки каталога в порядке каталога.
type Result struct {
	Statuses []Status
}

// Earned возвращает статус значка по ID (false для неизвестного).
func (r Result) Earned(id string) bool {
	for _, s := range r.Statuses {
		if s.Badge.ID == id {
			return s.Earned
		}
	}
	return false
}

// EarnedBadges возвращает полученные значки в порядке каталога.
func (r Result) EarnedBadges() []Badge {
	out := make([]Badge, 0, len(r.Statuses))
	for _, s := range r.Statuses {
		if s.Earned {
			out = append(out, s.Badge)
		}
	}
	return out
}

// EarnedIDs возвращает ID полученных значков в порядке каталога.
func (r Result) EarnedIDs() []string {
	earned := r.EarnedBadges()
	ids := make([]string, len(earned))
	for i, b := range earned {
		ids[i] = b.ID
	}
	return ids
}

// NextToEarn возвращает не более limit неполученных значков в порядке каталога.
func (r Result) NextToEarn(limit int) []Badge {
	out := make([]Badge, 0)
	if limit <= 0 {
		return out
	}
	for _, s := range r.Statuses {
		if len(out) == limit {
			break
		}
		if !s.Earned {
			out = append(out, s.Badge)
		}
	}
	return out
}

// EarnedCount возвращает количество полученных значков.
func (r Result) EarnedCount() int {
	n := 0
	for _, s := range r.Statuses {
		if s.Earned {
			n++
		}
	}
	return n
}

// Total возвращает размер каталога.
func (r Result) Total() int {
	return len(r.Statuses)
}

// Evaluator оценивает неизменяемый каталог значков.
type Evaluator struct {
	badges []Badge
}

// NewEvaluator создаёт оценщик. ID значков уникальны, правило обязательно.
func NewEvaluator(badges []Badge) (*Evaluator, error) {
	seen := make(map[string]struct{}, len(badges))
	for _, b := range badges {
		if strings.TrimSpace(b.ID) == "" {
			return nil, shared.NewDomainError("badge", "NewEvaluator", shared.ErrEmptyValue, "badge id cannot be empty")
		}
		if b.Rule == nil {
			return nil, shared.Errorf("badge", "NewEvaluator", shared.ErrInvalidInput, "badge %s has no rule", b.ID)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, shared.WrapError("badge", "NewEvaluator", shared.ErrAlreadyExists, "badge "+b.ID, shared.ErrDuplicateBadge)
		}
		seen[b.ID] = struct{}{}
	}

	copied := make([]Badge, len(badges))
	copy(copied, badges)
	return &Evaluator{badges: copied}, nil
}

// Badges возвращает копию каталога.
func (e *Evaluator) Badges() []Badge {
	out := make([]Badge, len(e.badges))
	copy(out, e.badges)
	return out
}

// Evaluate применяет правило каждого значка к facts.
// Одинаковые facts всегда дают одинаковый результат.
func (e *Evaluator) Evaluate(facts Facts) Result {
	statuses := make([]Status, len(e.badges))
	for i, b := range e.badges {
		statuses[i] = Status{Badge: b, Earned: b.Rule.Evaluate(facts)}
	}
	return Result{Statuses: statuses}
}

// NewlyEarned возвращает ID значков, полученных в after, но не в before.
func NewlyEarned(before, after Result) []string {
	var out []string
	for _, s := range after.Statuses {
		if s.Earned && !before.Earned(s.Badge.ID) {
			out = append(out, s.Badge.ID)
		}
	}
	return out
}
