package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/raksha360/preparedness-hub/internal/domain/badge"
	"github.com/raksha360/preparedness-hub/internal/domain/kit"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/level"
	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session - единственный владелец состояния студента.
// События применяются по одному: Apply держит мьютекс до конца пересчёта.
type Session struct {
	mu sync.Mutex

	id         shared.SessionID
	profile    *student.Profile
	selection  kit.Selection
	milestones map[string]struct{}
	version    int

	content  *Content
	settings Settings
	ranker   *leaderboard.Ranker
}

// New создаёт сессию. Профиль копируется.
func New(id shared.SessionID, profile *student.Profile, content *Content, settings Settings) (*Session, error) {
	if profile == nil {
		return nil, shared.NewDomainError("session", "New", shared.ErrInvalidInput, "profile is required")
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	if settings.NextBadgesLimit < 0 {
		return nil, shared.NewDomainError("session", "New", shared.ErrNegativeValue, "next badges limit cannot be negative")
	}

	return &Session{
		id:         id,
		profile:    profile.Clone(),
		selection:  kit.NewSelection(),
		milestones: make(map[string]struct{}),
		content:    content,
		settings:   settings,
		ranker:     leaderboard.NewRanker(settings.MinClassLevel),
	}, nil
}

// Replay восстанавливает сессию, применяя события по порядку.
// Одинаковые входные данные всегда дают одинаковое состояние.
func Replay(id shared.SessionID, profile *student.Profile, content *Content, settings Settings, events []Event) (*Session, error) {
	s, err := New(id, profile, content, settings)
	if err != nil {
		return nil, err
	}
	for i, ev := range events {
		if _, err := s.Apply(ev); err != nil {
			return nil, fmt.Errorf("replay event %d (%s): %w", i+1, ev.Kind(), err)
		}
	}
	return s, nil
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() shared.SessionID {
	return s.id
}

// Version возвращает количество применённых событий.
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Profile возвращает копию профиля.
func (s *Session) Profile() *student.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Selection возвращает копию выбора набора.
func (s *Session) Selection() kit.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Clone()
}

// Milestones возвращает отсортированные флаги достижений.
func (s *Session) Milestones() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedFlags(s.milestones)
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLY
// ══════════════════════════════════════════════════════════════════════════════

// Change описывает результат применения события.
type Change struct {
	Event   Event
	Version int

	LevelBefore int
	LevelAfter  int
	XP          int

	// Module - состояние модуля после LessonCompleted.
	Module *progress.Module

	// ItemSelected - состояние предмета после ItemToggled.
	ItemSelected bool

	// Cleared - сколько предметов сняла KitReset.
	Cleared int

	// NewBadges - значки, полученные этим событием, в порядке каталога.
	NewBadges []badge.Badge

	// BadgeCount - количество полученных значков после события.
	BadgeCount int
}

// LeveledUp сообщает, вырос ли уровень.
func (c Change) LeveledUp() bool {
	return c.LevelAfter > c.LevelBefore
}

// Apply проверяет и применяет одно событие атомарно:
// при ошибке состояние сессии не меняется.
func (s *Session) Apply(ev Event) (Change, error) {
	if ev == nil {
		return Change{}, shared.NewDomainError("session", "Apply", shared.ErrInvalidInput, "event is required")
	}
	if err := ev.Validate(); err != nil {
		return Change{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.derive(s.profile, s.selection, s.milestones)
	if err != nil {
		return Change{}, err
	}

	profile := s.profile.Clone()
	selection := s.selection.Clone()
	milestones := copyFlags(s.milestones)
	change := Change{Event: ev}

	switch e := ev.(type) {
	case LessonCompleted:
		m, err := profile.CompleteLesson(e.ModuleID)
		if err != nil {
			return Change{}, err
		}
		change.Module = &m
	case XPAwarded:
		if _, err := profile.AwardXP(e.Amount); err != nil {
			return Change{}, err
		}
	case ItemToggled:
		selected, err := selection.Toggle(s.content.Kit, e.ItemID)
		if err != nil {
			return Change{}, err
		}
		change.ItemSelected = selected
	case MilestoneReached:
		milestones[e.Flag] = struct{}{}
	case KitReset:
		change.Cleared = selection.Reset()
	default:
		return Change{}, shared.WrapError("session", "Apply", shared.ErrInvalidFormat, fmt.Sprintf("%T", ev), shared.ErrUnknownEvent)
	}

	after, err := s.derive(profile, selection, milestones)
	if err != nil {
		return Change{}, err
	}

	s.profile = profile
	s.selection = selection
	s.milestones = milestones
	s.version++

	change.Version = s.version
	change.LevelBefore = before.level.Level
	change.LevelAfter = after.level.Level
	change.XP = profile.XP
	change.BadgeCount = after.badges.EarnedCount()
	for _, id := range badge.NewlyEarned(before.badges, after.badges) {
		for _, st := range after.badges.Statuses {
			if st.Badge.ID == id {
				change.NewBadges = append(change.NewBadges, st.Badge)
			}
		}
	}
	return change, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED STATE
// ══════════════════════════════════════════════════════════════════════════════

type derived struct {
	progress progress.Summary
	level    level.Status
	kit      kit.Report
	badges   badge.Result
}

func (s *Session) derive(profile *student.Profile, selection kit.Selection, milestones map[string]struct{}) (derived, error) {
	summary, err := profile.Progress()
	if err != nil {
		return derived{}, err
	}
	status, err := profile.Level(s.content.Levels)
	if err != nil {
		return derived{}, err
	}
	report, err := kit.Validate(s.content.Kit, selection)
	if err != nil {
		return derived{}, err
	}

	facts := badge.NewFacts(summary, sortedFlags(milestones), status.Level, report.IsEssentialComplete)
	return derived{
		progress: summary,
		level:    status,
		kit:      report,
		badges:   s.content.Badges.Evaluate(facts),
	}, nil
}

// Dashboard - полное представление сессии для отображения.
type Dashboard struct {
	SessionID  shared.SessionID
	Name       string
	ClassID    student.ClassID
	ClassLevel int

	// Offline - признак подключения, только для отображения.
	Offline bool

	Level    level.Status
	Progress progress.Summary

	EarnedBadges []badge.Badge
	NextBadges   []badge.Badge
	BadgeCount   int
	BadgeTotal   int

	Kit       kit.Report
	KitGroups []kit.Group
	Selected  []string

	Milestones []string

	// LeaderboardVisible - рейтинг доступен классу студента.
	LeaderboardVisible bool

	Version int
}

// View вычисляет представление. offline не влияет на вычисления.
func (s *Session) View(offline bool) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.derive(s.profile, s.selection, s.milestones)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		SessionID:          s.id,
		Name:               s.profile.Name,
		ClassID:            s.profile.ClassID,
		ClassLevel:         s.profile.ClassLevel,
		Offline:            offline,
		Level:              d.level,
		Progress:           d.progress,
		EarnedBadges:       d.badges.EarnedBadges(),
		NextBadges:         d.badges.NextToEarn(s.settings.NextBadgesLimit),
		BadgeCount:         d.badges.EarnedCount(),
		BadgeTotal:         d.badges.Total(),
		Kit:                d.kit,
		KitGroups:          s.content.Kit.Groups(),
		Selected:           s.selection.IDs(),
		Milestones:         sortedFlags(s.milestones),
		LeaderboardVisible: s.ranker.IsApplicable(s.profile.ClassLevel),
		Version:            s.version,
	}, nil
}

// Badges возвращает текущую оценку значков.
func (s *Session) Badges() (badge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.derive(s.profile, s.selection, s.milestones)
	if err != nil {
		return badge.Result{}, err
	}
	return d.badges, nil
}

// KitReport возвращает проверку набора и группы каталога.
func (s *Session) KitReport() (kit.Report, []kit.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := kit.Validate(s.content.Kit, s.selection)
	if err != nil {
		return kit.Report{}, nil, err
	}
	return report, s.content.Kit.Groups(), nil
}

// ScoreRecord возвращает запись студента для табло класса.
func (s *Session) ScoreRecord() (leaderboard.ScoreRecord, error) {
	result, err := s.Badges()
	if err != nil {
		return leaderboard.ScoreRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return leaderboard.ScoreRecord{
		Name:       s.profile.Name,
		Points:     s.profile.XP,
		BadgeCount: result.EarnedCount(),
	}, nil
}

// Leaderboard ранжирует класс. Запись самого студента берётся из сессии,
// а не из табло, поэтому рейтинг всегда отражает текущие очки.
func (s *Session) Leaderboard(records []leaderboard.ScoreRecord) (leaderboard.Outcome, error) {
	own, err := s.ScoreRecord()
	if err != nil {
		return leaderboard.Outcome{}, err
	}

	merged := make([]leaderboard.ScoreRecord, 0, len(records)+1)
	for _, rec := range records {
		if rec.Name != own.Name {
			merged = append(merged, rec)
		}
	}
	merged = append(merged, own)

	s.mu.Lock()
	classLevel := s.profile.ClassLevel
	s.mu.Unlock()

	return s.ranker.Rank(leaderboard.Participants(merged, own.Name), classLevel)
}

func copyFlags(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortedFlags(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
