package models

import "time"

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	IncidentOpen          = "open"
	IncidentInvestigating = "investigating"
	IncidentResolved      = "resolved"
)

type Incident struct {
	ID             int        `json:"id"`
	Reference      string     `json:"reference"`
	SiteID         int        `json:"site_id"`
	SiteName       string     `json:"site_name,omitempty"`
	ShiftID        *int       `json:"shift_id,omitempty"`
	ReportedBy     int        `json:"reported_by"`
	ReporterName   string     `json:"reporter_name,omitempty"`
	Severity       string     `json:"severity"`
	Status         string     `json:"status"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
