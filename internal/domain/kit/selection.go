package kit

import (
	"sort"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// Selection - множество выбранных предметов (SelectionSet).
// Принадлежит сессии; изменяется только через Add/Remove/Toggle/Reset.
// Нулевое значение готово к использованию.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection создаёт выбор из списка ID (повторы схлопываются).
func NewSelection(ids ...string) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has проверяет, выбран ли предмет.
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len возвращает количество выбранных предметов.
func (s Selection) Len() int {
	return len(s.ids)
}

// IDs возвращает отсортированный список выбранных ID.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone возвращает независимую копию.
func (s Selection) Clone() Selection {
	return NewSelection(s.IDs()...)
}

// Equal сравнивает два выбора как множества.
func (s Selection) Equal(other Selection) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Add добавляет предмет. Повторное добавление ничего не меняет.
func (s *Selection) Add(catalog *Catalog, id string) error {
	if err := checkKnown(catalog, "Add", id); err != nil {
		return err
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
	return nil
}

// Remove убирает предмет. Удаление невыбранного предмета ничего не меняет.
func (s *Selection) Remove(catalog *Catalog, id string) error {
	if err := checkKnown(catalog, "Remove", id); err != nil {
		return err
	}
	delete(s.ids, id)
	return nil
}

// Toggle переключает членство предмета и возвращает новое состояние.
// Двойной Toggle возвращает выбор в исходное состояние.
func (s *Selection) Toggle(catalog *Catalog, id string) (bool, error) {
	if s.Has(id) {
		return false, s.Remove(catalog, id)
	}
	return true, s.Add(catalog, id)
}

// Reset очищает выбор и возвращает количество удалённых предметов.
func (s *Selection) Reset() int {
	n := len(s.ids)
	s.ids = make(map[string]struct{})
	return n
}

func checkKnown(catalog *Catalog, op, id string) error {
	if catalog == nil || !catalog.Contains(id) {
		return shared.WrapError("kit", op, shared.ErrNotFound, "item "+id, shared.ErrItemNotFound)
	}
	return nil
}
