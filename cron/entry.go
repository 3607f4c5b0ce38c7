package cron

import (
	"time"

	"github.com/xraph/conveyor/id"
)

// Entry represents a recurring restart schedule for a registered job.
type Entry struct {
	ID        id.CronID
	Name      string
	Schedule  string
	JobID     id.JobID
	Enabled   bool
	LastRunAt *time.Time
	NextRunAt *time.Time
}
