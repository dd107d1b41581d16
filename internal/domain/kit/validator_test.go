package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := NewCatalog([]Item{
		{ID: "water", Name: "Water (3 days)", Category: "Survival", Importance: ImportanceEssential},
		{ID: "food", Name: "Non-perishable food", Category: "Survival", Importance: ImportanceEssential},
		{ID: "flashlight", Name: "Flashlight", Category: "Tools", Importance: ImportanceEssential},
		{ID: "radio", Name: "Battery radio", Category: "Communication", Importance: ImportanceEssential},
		{ID: "first-aid", Name: "First aid kit", Category: "Medical", Importance: ImportanceEssential},
		{ID: "whistle", Name: "Whistle", Category: "Safety", Importance: ImportanceImportant},
		{ID: "wrench", Name: "Wrench", Category: "Tools", Importance: ImportanceImportant},
		{ID: "cash", Name: "Cash", Category: "Financial", Importance: ImportanceUseful},
	})
	require.NoError(t, err)
	return c
}

func TestValidate_ThreeOfFiveEssentials(t *testing.T) {
	c := testCatalog(t)
	sel := NewSelection("water", "food", "flashlight", "whistle")

	report, err := Validate(c, sel)
	require.NoError(t, err)

	assert.Equal(t, 3, report.EssentialSelected)
	assert.Equal(t, 5, report.EssentialTotal)
	assert.Equal(t, 2, report.MissingEssentialCount)
	assert.False(t, report.IsEssentialComplete)
	assert.Equal(t, 4, report.SelectedCount)
	assert.Equal(t, 8, report.TotalCount)
	assert.InDelta(t, 50.0, report.CompletenessPercent, 1e-9)

	require.Len(t, report.MissingEssentials, 2)
	assert.Equal(t, "radio", report.MissingEssentials[0].ID)
	assert.Equal(t, "first-aid", report.MissingEssentials[1].ID)
}

func TestValidate_EssentialCompleteIffNoneMissing(t *testing.T) {
	c := testCatalog(t)

	selections := []Selection{
		NewSelection(),
		NewSelection("water"),
		NewSelection("water", "food", "flashlight", "radio"),
		NewSelection("water", "food", "flashlight", "radio", "first-aid"),
		NewSelection("water", "food", "flashlight", "radio", "first-aid", "cash"),
	}

	for _, sel := range selections {
		report, err := Validate(c, sel)
		require.NoError(t, err)
		assert.Equal(t, report.MissingEssentialCount == 0, report.IsEssentialComplete, "selection %v", sel.IDs())
		assert.GreaterOrEqual(t, report.MissingEssentialCount, 0)
	}
}

func TestValidate_EmptyCatalog(t *testing.T) {
	empty, err := NewCatalog(nil)
	require.NoError(t, err)

	_, err = Validate(empty, NewSelection())
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestValidate_UnknownSelectedID(t *testing.T) {
	_, err := Validate(testCatalog(t), NewSelection("jetpack"))
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestSelection_ToggleIsInvolution(t *testing.T) {
	c := testCatalog(t)

	for _, start := range []Selection{NewSelection(), NewSelection("water", "cash")} {
		for _, item := range c.Items() {
			sel := start.Clone()

			_, err := sel.Toggle(c, item.ID)
			require.NoError(t, err)
			_, err = sel.Toggle(c, item.ID)
			require.NoError(t, err)

			assert.True(t, start.Equal(sel), "toggle twice on %s", item.ID)
		}
	}
}

func TestSelection_AddRemoveAreIdempotent(t *testing.T) {
	c := testCatalog(t)
	var sel Selection

	require.NoError(t, sel.Add(c, "water"))
	require.NoError(t, sel.Add(c, "water"))
	assert.Equal(t, 1, sel.Len())

	require.NoError(t, sel.Remove(c, "radio"))
	assert.Equal(t, 1, sel.Len())

	require.NoError(t, sel.Remove(c, "water"))
	assert.Zero(t, sel.Len())
}

func TestSelection_UnknownID(t *testing.T) {
	c := testCatalog(t)
	sel := NewSelection("water")

	_, err := sel.Toggle(c, "jetpack")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, []string{"water"}, sel.IDs())
}

func TestSelection_Reset(t *testing.T) {
	sel := NewSelection("water", "food")

	assert.Equal(t, 2, sel.Reset())
	assert.Zero(t, sel.Len())
	assert.Zero(t, sel.Reset())
}

func TestCatalog_Groups(t *testing.T) {
	groups := testCatalog(t).Groups()

	var categories []string
	for _, g := range groups {
		categories = append(categories, g.Category)
	}
	assert.Equal(t, []string{"Survival", "Tools", "Communication", "Medical", "Safety", "Financial"}, categories)

	require.Len(t, groups[1].Items, 2)
	assert.Equal(t, "flashlight", groups[1].Items[0].ID)
	assert.Equal(t, "wrench", groups[1].Items[1].ID)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog([]Item{
		{ID: "water", Importance: ImportanceEssential},
		{ID: "water", Importance: ImportanceUseful},
	})
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = NewCatalog([]Item{{ID: "", Importance: ImportanceEssential}})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewCatalog([]Item{{ID: "x", Importance: "Optional"}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestParseImportance(t *testing.T) {
	imp, err := ParseImportance(" essential ")
	require.NoError(t, err)
	assert.Equal(t, ImportanceEssential, imp)

	_, err = ParseImportance("critical")
	assert.Error(t, err)
}
