package schedule

import (
	"sort"

	"github.com/lhoward/shiftgrid-api/pkg/models"
)

// Optimize returns a new grid whose per-day assigned counts move toward
// period.NeededCapacity. Days are handled chronologically and independently:
// under-capacity days hand shifts to the least-loaded users first,
// over-capacity days take shifts back from the most-loaded first. Workload is
// the user's total assigned days across the whole period, recomputed from the
// evolving grid, so a user picked on day one drops in the ranking for day two.
//
// Locked cells are never touched. Requested-off cells are never newly
// assigned, but requested-off does not force removal on over-capacity days;
// only locked gates the remove branch. That asymmetry matches observed
// product behavior and is kept on purpose.
//
// A day that cannot reach capacity (too many cells locked, requested off, or
// already assigned) is left at whatever count the walk ends on. The input
// grid is not mutated; missing cells are treated as defaults.
func Optimize(period models.Period, users []models.User, grid models.Grid) (models.Grid, error) {
	days, err := PeriodDays(period)
	if err != nil {
		return nil, err
	}

	out := cloneGrid(grid, users, days)

	for _, day := range days {
		current := 0
		for _, u := range users {
			if out[u.ID][day].Assigned {
				current++
			}
		}

		switch {
		case current < period.NeededCapacity:
			for _, u := range rankByWorkload(users, out, false) {
				if current == period.NeededCapacity {
					break
				}
				cell := out[u.ID][day]
				if cell.Assigned || cell.Locked || cell.RequestedOff {
					continue
				}
				cell.Assigned = true
				out[u.ID][day] = cell
				current++
			}

		case current > period.NeededCapacity:
			for _, u := range rankByWorkload(users, out, true) {
				if current == period.NeededCapacity {
					break
				}
				cell := out[u.ID][day]
				if cell.Locked || !cell.Assigned {
					continue
				}
				cell.Assigned = false
				out[u.ID][day] = cell
				current--
			}
		}
	}

	return out, nil
}

// Workload counts a user's assigned days across the grid.
func Workload(grid models.Grid, userID uint) int {
	total := 0
	for _, cell := range grid[userID] {
		if cell.Assigned {
			total++
		}
	}
	return total
}

// rankByWorkload orders users by total assigned days, ascending by default,
// descending when desc is set. The sort is stable so equal workloads keep the
// caller's user order, which keeps runs deterministic.
func rankByWorkload(users []models.User, grid models.Grid, desc bool) []models.User {
	ranked := make([]models.User, len(users))
	copy(ranked, users)
	sort.SliceStable(ranked, func(i, j int) bool {
		wi := Workload(grid, ranked[i].ID)
		wj := Workload(grid, ranked[j].ID)
		if desc {
			return wi > wj
		}
		return wi < wj
	})
	return ranked
}

// cloneGrid copies the grid into the full (users x days) shape, filling
// missing cells with defaults.
func cloneGrid(grid models.Grid, users []models.User, days []string) models.Grid {
	out := make(models.Grid, len(users))
	for _, u := range users {
		row := make(map[string]models.Cell, len(days))
		src := grid[u.ID]
		for _, d := range days {
			row[d] = src[d]
		}
		out[u.ID] = row
	}
	return out
}
