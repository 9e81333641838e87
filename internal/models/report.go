package models

import "time"

const (
	ReportDraft     = "draft"
	ReportSubmitted = "submitted"
	ReportApproved  = "approved"
	ReportRejected  = "rejected"
)

type Report struct {
	ID          int        `json:"id"`
	Reference   string     `json:"reference"`
	ShiftID     *int       `json:"shift_id,omitempty"`
	AgentID     int        `json:"agent_id"`
	AgentName   string     `json:"agent_name,omitempty"`
	ReportType  string     `json:"report_type"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	ReviewNote  string     `json:"review_note,omitempty"`
	ReviewedBy  *int       `json:"reviewed_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
