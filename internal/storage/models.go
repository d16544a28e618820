package storage

import (
	"time"
)

// ReportRun captures one completed report cycle for auditing.
type ReportRun struct {
	ID        int64
	RunTS     time.Time
	TodayDate time.Time
	PrevDate  time.Time
	Products  int
	HasWeekly bool
	Message   string
	Status    string
	CreatedAt time.Time
}
