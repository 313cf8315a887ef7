package schedule

import (
	"sort"

	"github.com/lhoward/shiftgrid-api/pkg/models"
)

// Diff compares two grids of the same shape and returns one change per
// (user, date) pair whose assigned, locked, or requested-off state differs.
// Output order is deterministic: users ascending by ID, dates ascending.
// The change carries the new cell's values; RecordID falls back to the old
// cell's so an existing record is updated rather than duplicated.
func Diff(oldGrid, newGrid models.Grid) []models.CellChange {
	userIDs := make([]uint, 0, len(newGrid))
	for id := range newGrid {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	var changes []models.CellChange
	for _, uid := range userIDs {
		newRow := newGrid[uid]
		oldRow := oldGrid[uid]

		dates := make([]string, 0, len(newRow))
		for d := range newRow {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		for _, d := range dates {
			n := newRow[d]
			o := oldRow[d]

			var fields []string
			if o.Assigned != n.Assigned {
				fields = append(fields, "assigned")
			}
			if o.Locked != n.Locked {
				fields = append(fields, "locked")
			}
			if o.RequestedOff != n.RequestedOff {
				fields = append(fields, "requested_off")
			}
			if len(fields) == 0 {
				continue
			}

			recordID := n.RecordID
			if recordID == nil {
				recordID = o.RecordID
			}
			changes = append(changes, models.CellChange{
				UserID:       uid,
				Date:         d,
				RecordID:     recordID,
				Assigned:     n.Assigned,
				Locked:       n.Locked,
				RequestedOff: n.RequestedOff,
				Fields:       fields,
			})
		}
	}
	return changes
}
