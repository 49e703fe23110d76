// Package models defines the persistent data model shared by the
// coordinator store and the API handlers.
package models

// Candidate status values. Transitions are driven exclusively by the
// store: UNCHECKED -> CHECKING on reservation, CHECKING -> CHECKED on
// result submission, CHECKING -> UNCHECKED on stale reclamation, and
// anything -> UNCHECKED on a sample-store reset.
const (
	StatusUnchecked = 0
	StatusChecking  = 1
	StatusChecked   = 2
)

// Record is a single candidate passphrase row.
//
// UpdatedAt is a unix timestamp in whole seconds, refreshed on every
// status mutation. The stale sweeper uses its age as the sole lease
// reclamation criterion, so the server clock is authoritative. It is
// store bookkeeping and stays off the wire: record reads return only
// id, pwd and status.
type Record struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Pwd       string `gorm:"uniqueIndex;not null" json:"pwd"`
	Status    int    `gorm:"not null;default:0;index" json:"status"`
	UpdatedAt int64  `gorm:"autoUpdateTime:false" json:"-"`
}

// TableName returns the table name for Record.
func (Record) TableName() string {
	return "records"
}

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&Record{},
	}
}
