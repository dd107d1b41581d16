package leaderboard

import (
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD RANKER
// ══════════════════════════════════════════════════════════════════════════════

// DefaultMinClassLevel - классы с уровнем не выше этого рейтинг не видят.
const DefaultMinClassLevel = 5

// Outcome - результат ранжирования.
// Applicable == false означает "рейтинг недоступен" - это не ошибка.
type Outcome struct {
	Applicable bool
	ClassLevel int
	Entries    []Entry
}

// CurrentUser возвращает первую строку с IsCurrentUser.
func (o Outcome) CurrentUser() (Entry, bool) {
	for _, e := range o.Entries {
		if e.IsCurrentUser {
			return e, true
		}
	}
	return Entry{}, false
}

// Top возвращает первые n строк.
func (o Outcome) Top(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if n > len(o.Entries) {
		n = len(o.Entries)
	}
	out := make([]Entry, n)
	copy(out, o.Entries[:n])
	return out
}

// Neighbors возвращает строки вокруг участника с указанным именем (±rangeSize).
func (o Outcome) Neighbors(name string, rangeSize int) []Entry {
	idx := -1
	for i, e := range o.Entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	from := max(idx-rangeSize, 0)
	to := min(idx+rangeSize+1, len(o.Entries))

	out := make([]Entry, to-from)
	copy(out, o.Entries[from:to])
	return out
}

// Ranker упорядочивает участников и проверяет доступность рейтинга.
type Ranker struct {
	// MinClassLevel - порог видимости: рейтинг строится при classLevel > MinClassLevel.
	MinClassLevel int
}

// NewRanker создаёт Ranker с порогом видимости.
func NewRanker(minClassLevel int) *Ranker {
	return &Ranker{MinClassLevel: minClassLevel}
}

// IsApplicable сообщает, виден ли рейтинг классу.
func (r *Ranker) IsApplicable(classLevel int) bool {
	return classLevel > r.MinClassLevel
}

// Rank ранжирует участников: очки по убыванию, затем значки по убыванию,
// затем имя по возрастанию. Ранги 1..N без общих мест.
// Входной срез не изменяется.
func (r *Ranker) Rank(participants []Participant, classLevel int) (Outcome, error) {
	if !r.IsApplicable(classLevel) {
		return Outcome{Applicable: false, ClassLevel: classLevel}, nil
	}

	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return Outcome{}, err
		}
	}

	sorted := make([]Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.BadgeCount != b.BadgeCount {
			return a.BadgeCount > b.BadgeCount
		}
		return a.Name < b.Name
	})

	entries := make([]Entry, len(sorted))
	for i, p := range sorted {
		entries[i] = Entry{
			Rank:          Rank(i + 1),
			Name:          p.Name,
			Points:        p.Points,
			BadgeCount:    p.BadgeCount,
			IsCurrentUser: p.IsCurrentUser,
		}
	}

	return Outcome{Applicable: true, ClassLevel: classLevel, Entries: entries}, nil
}
