package models

// Period represents one scheduling window with a per-day staffing target.
// Dates are calendar days in YYYY-MM-DD form, inclusive on both ends.
type Period struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	NeededCapacity int    `json:"needed_capacity"`
}

// User is a person who can be assigned shifts
type User struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

// Cell is the state of one (user, day) pair. RecordID is set once a persisted
// record exists for the pair.
type Cell struct {
	RecordID     *uint `json:"record_id,omitempty"`
	Assigned     bool  `json:"assigned"`
	Locked       bool  `json:"locked"`
	RequestedOff bool  `json:"requested_off"`
}

// Grid maps user ID to date key (YYYY-MM-DD) to cell state.
type Grid map[uint]map[string]Cell

// CellRecord is a persisted cell tagged with its owner and day
type CellRecord struct {
	ID           uint   `json:"id"`
	UserID       uint   `json:"user_id"`
	Date         string `json:"date"`
	Assigned     bool   `json:"assigned"`
	Locked       bool   `json:"locked"`
	RequestedOff bool   `json:"requested_off"`
}

// CellChange describes one cell whose state differs between two grids. Fields
// lists which of assigned/locked/requested_off changed; the value fields carry
// the new state. A nil RecordID means no persisted record exists yet for the
// pair, so applying the change means creating one.
type CellChange struct {
	UserID       uint     `json:"user_id"`
	Date         string   `json:"date"`
	RecordID     *uint    `json:"record_id,omitempty"`
	Assigned     bool     `json:"assigned"`
	Locked       bool     `json:"locked"`
	RequestedOff bool     `json:"requested_off"`
	Fields       []string `json:"fields"`
}

// OptimizeResponse is the result of one optimizer run over a period.
type OptimizeResponse struct {
	RunToken     string       `json:"run_token"`
	PeriodID     uint         `json:"period_id"`
	CellsChanged int          `json:"cells_changed"`
	CellsFailed  int          `json:"cells_failed"`
	Failed       []CellChange `json:"failed,omitempty"`
	Grid         Grid         `json:"grid"`
}

// GridResponse pairs a grid with the period it was built from.
type GridResponse struct {
	Period Period `json:"period"`
	Users  []User `json:"users"`
	Grid   Grid   `json:"grid"`
}
