package runs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// AutomationRun records one backgrounded pipeline invocation.
type AutomationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Automation string         `gorm:"column:automation;not null;index" json:"automation"`
	PageID     string         `gorm:"column:page_id;not null;index" json:"page_id"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	RequestID  string         `gorm:"column:request_id" json:"request_id,omitempty"`
	TraceID    string         `gorm:"column:trace_id" json:"trace_id,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (AutomationRun) TableName() string { return "automation_run" }

func (r *AutomationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Done reports whether the run reached a terminal status.
func (r *AutomationRun) Done() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
