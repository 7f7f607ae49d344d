package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanze/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testAudit() core.Audit {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return core.Audit{CreateBy: 1, CreateDate: now, UpdateBy: 1, UpdateDate: now}
}

func seedPreference(t *testing.T, repo *SQLiteRepository, userID int64, name string, pct float64, categories ...string) int64 {
	t.Helper()
	id, err := repo.InsertBudgetPreference(context.Background(), core.BudgetPreference{
		Name:       name,
		Percentage: pct,
		Categories: categories,
		UserID:     userID,
		Audit:      testAudit(),
	})
	require.NoError(t, err)
	return id
}

func TestBudgetPreferenceRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := seedPreference(t, repo, 1, "Essentials", 60.5, "rent", "food")

	got, err := repo.GetBudgetPreference(ctx, id, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Essentials", got.Name)
	assert.Equal(t, 60.5, got.Percentage)
	assert.Equal(t, []string{"rent", "food"}, got.Categories)
	assert.Equal(t, int64(1), got.CreateBy)
	assert.Equal(t, testAudit().CreateDate, got.CreateDate)

	// missing id and foreign owner both come back empty
	missing, err := repo.GetBudgetPreference(ctx, 999, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
	foreign, err := repo.GetBudgetPreference(ctx, id, 2)
	require.NoError(t, err)
	assert.Nil(t, foreign)
}

func TestCategoryAssignmentsAndSums(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedPreference(t, repo, 1, "A", 60, "rent", "food")
	b := seedPreference(t, repo, 1, "B", 30, "games")
	seedPreference(t, repo, 2, "Other", 90, "rent")

	assignments, err := repo.CategoryAssignments(ctx, 1, 0)
	require.NoError(t, err)
	categories := map[string]int64{}
	for _, asg := range assignments {
		categories[asg.Category] = asg.BudgetPreferenceID
	}
	assert.Equal(t, map[string]int64{"rent": a, "food": a, "games": b}, categories)

	// excluding a preference hides its rows from both queries
	excluded, err := repo.CategoryAssignments(ctx, 1, a)
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, "games", excluded[0].Category)

	sum, err := repo.SumPercentages(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 90.0, sum)
	sum, err = repo.SumPercentages(ctx, 1, a)
	require.NoError(t, err)
	assert.Equal(t, 30.0, sum)

	// a user with no rows sums to zero
	sum, err = repo.SumPercentages(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum)
}

func TestUpdateBudgetPreferenceReplacesCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := seedPreference(t, repo, 1, "A", 60, "rent", "food")

	newName := "Fixed"
	newPct := 70.0
	audit := core.Audit{UpdateBy: 1, UpdateDate: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	updated, err := repo.UpdateBudgetPreference(ctx, id, 1, BudgetPreferenceUpdate{
		Name:       &newName,
		Percentage: &newPct,
		Categories: []string{"utilities"},
	}, audit)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetBudgetPreference(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "Fixed", got.Name)
	assert.Equal(t, 70.0, got.Percentage)
	assert.Equal(t, []string{"utilities"}, got.Categories)
	assert.Equal(t, audit.UpdateDate, got.UpdateDate)
	assert.Equal(t, testAudit().CreateDate, got.CreateDate, "create audit untouched")

	// name-only update keeps the categories
	another := "Renamed"
	_, err = repo.UpdateBudgetPreference(ctx, id, 1, BudgetPreferenceUpdate{Name: &another}, audit)
	require.NoError(t, err)
	got, err = repo.GetBudgetPreference(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"utilities"}, got.Categories)

	// wrong owner updates nothing
	updated, err = repo.UpdateBudgetPreference(ctx, id, 2, BudgetPreferenceUpdate{Name: &another}, audit)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteBudgetPreferenceCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := seedPreference(t, repo, 1, "A", 60, "rent", "food")
	other := seedPreference(t, repo, 2, "B", 40, "rent")

	// wrong owner cannot delete
	deleted, err := repo.DeleteBudgetPreference(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteBudgetPreference(ctx, id, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.GetBudgetPreference(ctx, id, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	// no membership rows survive the delete
	assignments, err := repo.CategoryAssignments(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, assignments)

	// the other user's identical category is untouched
	assignments, err = repo.CategoryAssignments(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, other, assignments[0].BudgetPreferenceID)
}

func TestListBudgetPreferencesLoadsAllCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedPreference(t, repo, 1, "A", 60, "rent", "food")
	seedPreference(t, repo, 1, "B", 30, "games")

	prefs, err := repo.ListBudgetPreferences(ctx, 1)
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, []string{"rent", "food"}, prefs[0].Categories)
	assert.Equal(t, []string{"games"}, prefs[1].Categories)

	empty, err := repo.ListBudgetPreferences(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
