package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/lhoward/shiftgrid-api/pkg/models"
)

// DateKeyFormat is the canonical calendar-day form used as the join key
// between grid cells and persisted records. Keys are computed in UTC so a
// period never gains or loses a day across timezone boundaries.
const DateKeyFormat = "2006-01-02"

// ErrInvalidInput marks a malformed period: unparseable dates, end before
// start, or a negative capacity. Callers match it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidatePeriod checks the period's date range and capacity without building
// anything.
func ValidatePeriod(period models.Period) error {
	_, err := PeriodDays(period)
	return err
}

// PeriodDays returns every date key in [StartDate, EndDate], in chronological
// order.
func PeriodDays(period models.Period) ([]string, error) {
	start, err := time.ParseInLocation(DateKeyFormat, period.StartDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q", ErrInvalidInput, period.StartDate)
	}
	end, err := time.ParseInLocation(DateKeyFormat, period.EndDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: end date %q", ErrInvalidInput, period.EndDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s before start date %s", ErrInvalidInput, period.EndDate, period.StartDate)
	}
	if period.NeededCapacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidInput, period.NeededCapacity)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateKeyFormat))
	}
	return days, nil
}

// BuildGrid constructs a fully populated grid for the period: one default
// cell (unassigned, unlocked, not requested off) per assigned user per day,
// then overlays the persisted records that match a (user, date) pair in the
// grid. Records outside the grid are ignored.
func BuildGrid(period models.Period, users []models.User, records []models.CellRecord) (models.Grid, error) {
	days, err := PeriodDays(period)
	if err != nil {
		return nil, err
	}

	grid := make(models.Grid, len(users))
	for _, u := range users {
		row := make(map[string]models.Cell, len(days))
		for _, d := range days {
			row[d] = models.Cell{}
		}
		grid[u.ID] = row
	}

	for _, rec := range records {
		row, ok := grid[rec.UserID]
		if !ok {
			continue
		}
		if _, ok := row[rec.Date]; !ok {
			continue
		}
		id := rec.ID
		row[rec.Date] = models.Cell{
			RecordID:     &id,
			Assigned:     rec.Assigned,
			Locked:       rec.Locked,
			RequestedOff: rec.RequestedOff,
		}
	}

	return grid, nil
}
