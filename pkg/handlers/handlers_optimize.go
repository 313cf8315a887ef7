package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/models"
	"github.com/lhoward/shiftgrid-api/pkg/schedule"
)

// OptimizePeriod runs the schedule optimizer for one period: build the grid
// from the store, optimize, diff against the prior state and persist the
// changed cells. The computation is pure; only the final diff touches the
// database. Failed writes are reported, not retried — the store is the source
// of truth on the next grid load.
func (h *Handler) OptimizePeriod(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	// One optimizer run per period at a time. Two concurrent runs over
	// divergent snapshots would both hand out the same slot.
	lock := h.periodLock(period.ID)
	lock.Lock()
	defer lock.Unlock()

	users, err := h.periodUsers(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
		return
	}
	records, err := h.periodRecords(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch records"})
		return
	}

	oldGrid, err := schedule.BuildGrid(period, users, records)
	if err != nil {
		h.optimizeError(c, err)
		return
	}
	newGrid, err := schedule.Optimize(period, users, oldGrid)
	if err != nil {
		h.optimizeError(c, err)
		return
	}

	changes := schedule.Diff(oldGrid, newGrid)
	applied, failed := h.applyChanges(period.ID, changes)

	token := uuid.NewString()
	run := database.OptimizerRun{
		Token:        token,
		PeriodID:     period.ID,
		RunBy:        c.GetString("username"),
		CellsChanged: applied,
		CellsFailed:  len(failed),
	}
	if err := h.DB.Create(&run).Error; err != nil {
		h.Log.Errorf("record run %s: %v", token, err)
	}

	if h.Metrics != nil {
		h.Metrics.RecordRun(applied, len(failed))
	}
	if len(failed) > 0 {
		h.Log.Warnf("optimizer run %s for period %d: %d cells applied, %d failed", token, period.ID, applied, len(failed))
	} else {
		h.Log.Infof("optimizer run %s for period %d: %d cells changed", token, period.ID, applied)
	}

	c.JSON(http.StatusOK, models.OptimizeResponse{
		RunToken:     token,
		PeriodID:     period.ID,
		CellsChanged: applied,
		CellsFailed:  len(failed),
		Failed:       failed,
		Grid:         newGrid,
	})
}

func (h *Handler) optimizeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, schedule.ErrInvalidInput) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// applyChanges persists a diff as a batch of independent per-cell upserts.
// Each targets a distinct (user, date) record, so they run concurrently;
// per-item failures are collected rather than rolling anything back.
func (h *Handler) applyChanges(periodID uint, changes []models.CellChange) (int, []models.CellChange) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		failed  []models.CellChange
	)

	for _, change := range changes {
		wg.Add(1)
		go func(change models.CellChange) {
			defer wg.Done()

			record := database.ShiftRecord{
				PeriodID:     periodID,
				UserID:       change.UserID,
				Date:         change.Date,
				Assigned:     change.Assigned,
				Locked:       change.Locked,
				RequestedOff: change.RequestedOff,
			}
			err := h.upsertRecord(&record)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, change)
			} else {
				applied++
			}
		}(change)
	}

	wg.Wait()
	return applied, failed
}

func (h *Handler) periodLock(periodID uint) *sync.Mutex {
	lock, _ := h.runLocks.LoadOrStore(periodID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
