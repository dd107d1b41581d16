package kit

import (
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// KIT VALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// Report - результат проверки набора.
type Report struct {
	SelectedCount       int
	TotalCount          int
	CompletenessPercent float64

	EssentialSelected     int
	EssentialTotal        int
	IsEssentialComplete   bool
	MissingEssentialCount int

	// MissingEssentials - невыбранные обязательные предметы в порядке каталога.
	MissingEssentials []Item
}

// Validate сравнивает выбор с каталогом. Не изменяет аргументы.
// Пустой каталог и неизвестные ID в выборе - ошибки.
func Validate(catalog *Catalog, selection Selection) (Report, error) {
	if catalog == nil || catalog.Len() == 0 {
		return Report{}, shared.ErrEmptyCatalog
	}
	for id := range selection.ids {
		if !catalog.Contains(id) {
			return Report{}, shared.WrapError("kit", "Validate", shared.ErrNotFound, "item "+id, shared.ErrItemNotFound)
		}
	}

	report := Report{
		TotalCount:        catalog.Len(),
		MissingEssentials: make([]Item, 0),
	}

	for _, item := range catalog.items {
		selected := selection.Has(item.ID)
		if selected {
			report.SelectedCount++
		}
		if !item.IsEssential() {
			continue
		}
		report.EssentialTotal++
		if selected {
			report.EssentialSelected++
		} else {
			report.MissingEssentials = append(report.MissingEssentials, item)
		}
	}

	report.CompletenessPercent = float64(shared.PercentOf(report.SelectedCount, report.TotalCount))
	report.MissingEssentialCount = report.EssentialTotal - report.EssentialSelected
	report.IsEssentialComplete = report.MissingEssentialCount == 0
	return report, nil
}
