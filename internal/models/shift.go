package models

import "time"

// Shift lifecycle: scheduled -> in_progress -> completed | missed.
// Cancelled shifts never start.
const (
	ShiftScheduled  = "scheduled"
	ShiftInProgress = "in_progress"
	ShiftCompleted  = "completed"
	ShiftMissed     = "missed"
	ShiftCancelled  = "cancelled"
)

type Shift struct {
	ID             int        `json:"id"`
	AgentID        int        `json:"agent_id"`
	AgentName      string     `json:"agent_name,omitempty"`
	SiteID         int        `json:"site_id"`
	SiteName       string     `json:"site_name,omitempty"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	ActualStart    *time.Time `json:"actual_start,omitempty"`
	ActualEnd      *time.Time `json:"actual_end,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	SelfiePath     string     `json:"selfie,omitempty"`
	WorkedDuration int        `json:"worked_duration,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
