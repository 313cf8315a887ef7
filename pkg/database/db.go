package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// User represents the users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Period represents the periods table. Dates are stored as YYYY-MM-DD strings,
// the same canonical form used for grid date keys.
type Period struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	StartDate      string    `gorm:"not null" json:"start_date"`
	EndDate        string    `gorm:"not null" json:"end_date"`
	NeededCapacity int       `gorm:"default:0" json:"needed_capacity"`
	CreatedAt      time.Time `json:"created_at"`
}

// PeriodAssignment links a user to a period. Assignment order is the tie-break
// order the optimizer sees, so rows are always read back ordered by ID.
type PeriodAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PeriodID  uint      `gorm:"uniqueIndex:idx_period_user;not null" json:"period_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_period_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ShiftRecord represents the shift_records table: one persisted cell per
// (period, user, date)
type ShiftRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PeriodID     uint      `gorm:"uniqueIndex:idx_period_user_date;not null" json:"period_id"`
	UserID       uint      `gorm:"uniqueIndex:idx_period_user_date;not null" json:"user_id"`
	Date         string    `gorm:"uniqueIndex:idx_period_user_date;not null" json:"date"`
	Assigned     bool      `gorm:"default:false" json:"assigned"`
	Locked       bool      `gorm:"default:false" json:"locked"`
	RequestedOff bool      `gorm:"default:false" json:"requested_off"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OptimizerRun is the audit row written after each optimizer invocation.
type OptimizerRun struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Token        string    `gorm:"unique;not null" json:"token"`
	PeriodID     uint      `gorm:"index;not null" json:"period_id"`
	RunBy        string    `json:"run_by"`
	CellsChanged int       `gorm:"default:0" json:"cells_changed"`
	CellsFailed  int       `gorm:"default:0" json:"cells_failed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExportKey represents the export_keys table: HMAC-signed keys for the
// read-only export API
type ExportKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// InitDB initializes the database connection and migrates the schema.
// A non-empty dsn selects postgres; otherwise a sqlite file at sqlitePath.
func InitDB(dsn, sqlitePath string) *gorm.DB {
	var db *gorm.DB
	var err error

	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		if sqlitePath == "" {
			sqlitePath = "shiftgrid.db"
		}
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto Migration
	db.AutoMigrate(&User{}, &Period{}, &PeriodAssignment{}, &ShiftRecord{}, &OptimizerRun{}, &ExportKey{})

	return db
}
