package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhoward/shiftgrid-api/pkg/models"
)

func TestDiffEmptyWhenEqual(t *testing.T) {
	period := testPeriod("2024-01-01", "2024-01-03", 1)
	users := testUsers(1, 2)
	grid, err := BuildGrid(period, users, []models.CellRecord{
		{ID: 1, UserID: 1, Date: "2024-01-02", Assigned: true},
	})
	require.NoError(t, err)

	assert.Empty(t, Diff(grid, grid))
}

func TestDiffDetectsChangedFields(t *testing.T) {
	period := testPeriod("2024-01-01", "2024-01-02", 1)
	users := testUsers(1)
	oldGrid, err := BuildGrid(period, users, nil)
	require.NoError(t, err)

	newGrid, err := BuildGrid(period, users, nil)
	require.NoError(t, err)
	newGrid[1]["2024-01-01"] = models.Cell{Assigned: true}
	newGrid[1]["2024-01-02"] = models.Cell{Locked: true, RequestedOff: true}

	changes := Diff(oldGrid, newGrid)
	require.Len(t, changes, 2)

	assert.Equal(t, "2024-01-01", changes[0].Date)
	assert.Equal(t, []string{"assigned"}, changes[0].Fields)
	assert.True(t, changes[0].Assigned)
	assert.Nil(t, changes[0].RecordID)

	assert.Equal(t, "2024-01-02", changes[1].Date)
	assert.Equal(t, []string{"locked", "requested_off"}, changes[1].Fields)
}

func TestDiffCarriesRecordID(t *testing.T) {
	period := testPeriod("2024-01-01", "2024-01-01", 1)
	users := testUsers(1)
	oldGrid, err := BuildGrid(period, users, []models.CellRecord{
		{ID: 42, UserID: 1, Date: "2024-01-01"},
	})
	require.NoError(t, err)

	newGrid, err := Optimize(period, users, oldGrid)
	require.NoError(t, err)

	changes := Diff(oldGrid, newGrid)
	require.Len(t, changes, 1)
	require.NotNil(t, changes[0].RecordID)
	assert.Equal(t, uint(42), *changes[0].RecordID)
	assert.True(t, changes[0].Assigned)
}

func TestDiffDeterministicOrder(t *testing.T) {
	period := testPeriod("2024-01-01", "2024-01-02", 2)
	users := testUsers(2, 1)
	oldGrid, err := BuildGrid(period, users, nil)
	require.NoError(t, err)

	newGrid, err := Optimize(period, users, oldGrid)
	require.NoError(t, err)

	changes := Diff(oldGrid, newGrid)
	require.Len(t, changes, 4)

	// Users ascending, then dates ascending, regardless of map iteration.
	assert.Equal(t, uint(1), changes[0].UserID)
	assert.Equal(t, "2024-01-01", changes[0].Date)
	assert.Equal(t, uint(1), changes[1].UserID)
	assert.Equal(t, "2024-01-02", changes[1].Date)
	assert.Equal(t, uint(2), changes[2].UserID)
	assert.Equal(t, "2024-01-01", changes[2].Date)
	assert.Equal(t, uint(2), changes[3].UserID)
	assert.Equal(t, "2024-01-02", changes[3].Date)
}
