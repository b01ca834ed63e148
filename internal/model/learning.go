package model

import "time"

// FirmProfile accumulates per-counterparty statistics derived from
// validation outcomes and status changes. Counters are monotonic; profiles
// are created lazily and never deleted.
type FirmProfile struct {
	LastUpdated           time.Time      `json:"last_updated"`
	IssueCounts           map[string]int `json:"issue_counts"`
	AcceptedSuggestions   map[string]int `json:"accepted_suggestions"`
	StatusTransitions     map[string]int `json:"status_transitions"`
	ContraFirm            string         `json:"contra_firm"`
	TotalSubmissions      int            `json:"total_submissions"`
	SuccessfulSubmissions int            `json:"successful_submissions"`
	SuccessRate           float64        `json:"success_rate"`
}

// FirmIssue is one entry in a top-issues report. Severity is derived from
// the occurrence count, not carried over from individual verdicts.
type FirmIssue struct {
	Field    string   `json:"field"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// FirmSuccess summarizes one counterparty's track record for the global
// insights report.
type FirmSuccess struct {
	ContraFirm       string  `json:"contra_firm"`
	SuccessRate      float64 `json:"success_rate"`
	TotalSubmissions int     `json:"total_submissions"`
}

// GlobalInsights is the cross-firm aggregate report.
type GlobalInsights struct {
	TotalFirms         int           `json:"total_firms"`
	TotalSubmissions   int           `json:"total_submissions"`
	OverallSuccessRate float64       `json:"overall_success_rate"`
	ProblematicFirms   []FirmSuccess `json:"problematic_firms"`
	CommonIssues       []FirmIssue   `json:"most_common_issues"`
}
