package models

import "time"

// WalkerResponse is the envelope every Jivas walker call replies with.
type WalkerResponse struct {
	Status  int   `json:"status"`
	Reports []any `json:"reports"`
}

// Report is an analytics payload passed through to the views untouched.
type Report map[string]any

// ReportQuery selects the agent and date range for the analytics walkers.
type ReportQuery struct {
	AgentID   string `json:"agent_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Timezone  string `json:"timezone"`
}

// ReportRequest is the body posted to the *_by_date walkers.
type ReportRequest struct {
	Reporting bool `json:"reporting"`
	ReportQuery
}

// Dashboard bundles the three analytics reports rendered together.
type Dashboard struct {
	Query        ReportQuery `json:"query"`
	Channels     Report      `json:"channels"`
	Interactions Report      `json:"interactions"`
	Users        Report      `json:"users"`
}

// ReportDateLayout is the date format the analytics walkers accept.
const ReportDateLayout = "2006-01-02"

// NewReportQuery builds a query covering the calendar days from start to end
// inclusive, rendered in the named timezone.
func NewReportQuery(agentID string, start time.Time, end time.Time, timezone string) ReportQuery {
	location, err := time.LoadLocation(timezone)
	if err != nil || len(timezone) == 0 {
		location = time.UTC
		timezone = "UTC"
	}

	if end.Before(start) {
		start, end = end, start
	}

	return ReportQuery{
		AgentID:   agentID,
		StartDate: start.In(location).Format(ReportDateLayout),
		EndDate:   end.In(location).Format(ReportDateLayout),
		Timezone:  timezone,
	}
}
