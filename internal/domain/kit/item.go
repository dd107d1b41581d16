// Package kit содержит модель аварийного набора ("Emergency Kit Builder"):
// каталог предметов, выбор студента и проверку полноты набора.
package kit

import (
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IMPORTANCE
// ══════════════════════════════════════════════════════════════════════════════

// Importance - важность предмета в наборе.
type Importance string

const (
	// ImportanceEssential - обязательный предмет, без него набор неполный.
	ImportanceEssential Importance = "Essential"
	// ImportanceImportant - важный предмет.
	ImportanceImportant Importance = "Important"
	// ImportanceUseful - полезный предмет.
	ImportanceUseful Importance = "Useful"
)

// IsValid проверяет, что важность известна.
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceEssential, ImportanceImportant, ImportanceUseful:
		return true
	default:
		return false
	}
}

// ParseImportance разбирает строку важности (без учёта регистра).
func ParseImportance(s string) (Importance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "essential":
		return ImportanceEssential, nil
	case "important":
		return ImportanceImportant, nil
	case "useful":
		return ImportanceUseful, nil
	default:
		return "", shared.Errorf("kit", "ParseImportance", shared.ErrInvalidInput, "unknown importance %q", s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ITEM & CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Item - предмет аварийного набора.
type Item struct {
	ID          string
	Name        string
	Category    string
	Importance  Importance
	Description string
}

// IsEssential возвращает true для обязательных предметов.
func (i Item) IsEssential() bool {
	return i.Importance == ImportanceEssential
}

// Group - предметы одной категории в порядке каталога.
type Group struct {
	Category string
	Items    []Item
}

// Catalog - неизменяемый каталог предметов.
type Catalog struct {
	items  []Item
	byID   map[string]int
	groups []Group
}

// NewCatalog создаёт каталог. ID должны быть уникальными и непустыми.
func NewCatalog(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	groupIdx := make(map[string]int)
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return nil, shared.NewDomainError("kit", "NewCatalog", shared.ErrEmptyValue, "item id cannot be empty")
		}
		if !item.Importance.IsValid() {
			return nil, shared.Errorf("kit", "NewCatalog", shared.ErrInvalidInput, "item %s: unknown importance %q", item.ID, item.Importance)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, shared.WrapError("kit", "NewCatalog", shared.ErrAlreadyExists, "item "+item.ID, shared.ErrDuplicateItem)
		}

		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, item)

		idx, ok := groupIdx[item.Category]
		if !ok {
			idx = len(c.groups)
			groupIdx[item.Category] = idx
			c.groups = append(c.groups, Group{Category: item.Category})
		}
		c.groups[idx].Items = append(c.groups[idx].Items, item)
	}

	return c, nil
}

// Items возвращает копию предметов в порядке каталога.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len возвращает количество предметов.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Get возвращает предмет по ID.
func (c *Catalog) Get(id string) (Item, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Contains проверяет наличие предмета в каталоге.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Groups возвращает предметы, сгруппированные по категориям.
// Порядок групп - по первому появлению категории, внутри группы - порядок каталога.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		items := make([]Item, len(g.Items))
		copy(items, g.Items)
		out[i] = Group{Category: g.Category, Items: items}
	}
	return out
}

// EssentialCount возвращает количество обязательных предметов.
func (c *Catalog) EssentialCount() int {
	n := 0
	for _, item := range c.items {
		if item.IsEssential() {
			n++
		}
	}
	return n
}
