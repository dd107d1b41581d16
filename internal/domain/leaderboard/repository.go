package leaderboard

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SOURCE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRecord - сохранённые очки участника класса.
type ScoreRecord struct {
	Name       string
	Points     int
	BadgeCount int
}

// ScoreSource определяет контракт табло очков класса.
// Реализация находится в infrastructure слое (Redis, память).
// Табло только хранит очки; порядок и ранги определяет Ranker.
type ScoreSource interface {
	// Upsert записывает очки и количество значков участника.
	Upsert(ctx context.Context, classID string, record ScoreRecord) error

	// List возвращает всех участников класса в произвольном порядке.
	List(ctx context.Context, classID string) ([]ScoreRecord, error)

	// Remove удаляет участника из табло.
	Remove(ctx context.Context, classID, name string) error
}

// Participants превращает записи табло во входные данные Ranker,
// помечая текущего пользователя по имени.
func Participants(records []ScoreRecord, currentUser string) []Participant {
	out := make([]Participant, len(records))
	for i, rec := range records {
		out[i] = Participant{
			Name:          rec.Name,
			Points:        rec.Points,
			BadgeCount:    rec.BadgeCount,
			IsCurrentUser: currentUser != "" && rec.Name == currentUser,
		}
	}
	return out
}
