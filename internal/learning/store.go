// Package learning accumulates per-counterparty statistics from validation
// and status-change events. The counters are a best-effort heuristic signal:
// monotonic, no decay, no eviction.
package learning

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quillon/acatflow/internal/model"
	"github.com/quillon/acatflow/internal/tracking"
)

// Outcome is the tri-state result of a submission. Unknown records a
// submission without a success or failure signal.
type Outcome int

// Outcome constants.
const (
	OutcomeUnknown Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

// Store holds one profile per contra firm, created lazily on first event.
// All operations are synchronous and never fail.
type Store struct {
	now      func() time.Time
	profiles map[string]*model.FirmProfile
	mu       sync.RWMutex
}

// NewStore creates an empty learning store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*model.FirmProfile),
		now:      time.Now,
	}
}

// getOrCreate returns the profile for a contra firm, creating it lazily.
// Callers must hold the write lock.
func (s *Store) getOrCreate(contraFirm string) *model.FirmProfile {
	profile, ok := s.profiles[contraFirm]
	if !ok {
		profile = &model.FirmProfile{
			ContraFirm:          contraFirm,
			IssueCounts:         make(map[string]int),
			AcceptedSuggestions: make(map[string]int),
			StatusTransitions:   make(map[string]int),
		}
		s.profiles[contraFirm] = profile
	}
	return profile
}

// RecordValidationOutcome counts one submission toward a firm's profile.
// An accepted outcome bumps the success count; a rejected outcome charges
// every high-severity suggestion's field as an issue; an unknown outcome is
// a pure total-submission increment with no success or failure signal.
func (s *Store) RecordValidationOutcome(contraFirm string, verdict model.Verdict, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.getOrCreate(contraFirm)
	profile.TotalSubmissions++

	switch outcome {
	case OutcomeAccepted:
		profile.SuccessfulSubmissions++
	case OutcomeRejected:
		for _, suggestion := range verdict.Suggestions {
			if suggestion.Severity == model.SeverityHigh {
				profile.IssueCounts[suggestion.Field]++
			}
		}
	case OutcomeUnknown:
	}

	profile.SuccessRate = float64(profile.SuccessfulSubmissions) / float64(profile.TotalSubmissions)
	profile.LastUpdated = s.now().UTC()
}

// RecordAcceptedFields counts suggestion fields the caller applied before
// submitting.
func (s *Store) RecordAcceptedFields(contraFirm string, fields []string) {
	if len(fields) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.getOrCreate(contraFirm)
	for _, field := range fields {
		profile.AcceptedSuggestions[field]++
	}
	profile.LastUpdated = s.now().UTC()
}

// RecordStatusChange counts a lifecycle transition. Reasons that mention
// rejection or invalid data also charge a synthetic status_change issue.
func (s *Store) RecordStatusChange(contraFirm string, from, to model.Status, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.getOrCreate(contraFirm)
	profile.StatusTransitions[string(from)+"_to_"+string(to)]++

	lower := strings.ToLower(reason)
	if strings.Contains(lower, "reject") || strings.Contains(lower, "invalid") {
		profile.IssueCounts["status_change"]++
	}
	profile.LastUpdated = s.now().UTC()
}

// StatusChanged implements tracking.Subscriber, feeding tracking store
// events into the learning counters.
func (s *Store) StatusChanged(change tracking.StatusChange) {
	s.RecordStatusChange(change.ContraFirm, change.From, change.To, change.Reason)
}

// Profile returns a read-only snapshot for one contra firm. Unknown firms
// yield an empty profile without creating one.
func (s *Store) Profile(contraFirm string) model.FirmProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[contraFirm]
	if !ok {
		return model.FirmProfile{
			ContraFirm:          contraFirm,
			IssueCounts:         map[string]int{},
			AcceptedSuggestions: map[string]int{},
			StatusTransitions:   map[string]int{},
		}
	}
	return snapshotProfile(profile)
}

// TopIssues returns a firm's most frequent issue fields, count descending.
// Severity is derived from the count: high above 5 occurrences, medium
// above 2, low otherwise. A non-positive limit defaults to 10.
func (s *Store) TopIssues(contraFirm string, limit int) []model.FirmIssue {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[contraFirm]
	if !ok {
		return []model.FirmIssue{}
	}

	issues := issuesByCount(profile.IssueCounts)
	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues
}

// GlobalInsights aggregates across all firms: totals, overall success rate,
// the five weakest firms with at least one submission, and the five most
// frequent issue fields.
func (s *Store) GlobalInsights() model.GlobalInsights {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insights := model.GlobalInsights{
		TotalFirms:       len(s.profiles),
		ProblematicFirms: []model.FirmSuccess{},
		CommonIssues:     []model.FirmIssue{},
	}

	var successful int
	globalIssues := make(map[string]int)
	for _, profile := range s.profiles {
		insights.TotalSubmissions += profile.TotalSubmissions
		successful += profile.SuccessfulSubmissions
		for field, count := range profile.IssueCounts {
			globalIssues[field] += count
		}

		if profile.TotalSubmissions > 0 {
			insights.ProblematicFirms = append(insights.ProblematicFirms, model.FirmSuccess{
				ContraFirm:       profile.ContraFirm,
				SuccessRate:      profile.SuccessRate,
				TotalSubmissions: profile.TotalSubmissions,
			})
		}
	}

	if insights.TotalSubmissions > 0 {
		insights.OverallSuccessRate = float64(successful) / float64(insights.TotalSubmissions)
	}

	sort.Slice(insights.ProblematicFirms, func(i, j int) bool {
		a, b := insights.ProblematicFirms[i], insights.ProblematicFirms[j]
		if a.SuccessRate != b.SuccessRate {
			return a.SuccessRate < b.SuccessRate
		}
		return a.ContraFirm < b.ContraFirm
	})
	if len(insights.ProblematicFirms) > 5 {
		insights.ProblematicFirms = insights.ProblematicFirms[:5]
	}

	insights.CommonIssues = issuesByCount(globalIssues)
	if len(insights.CommonIssues) > 5 {
		insights.CommonIssues = insights.CommonIssues[:5]
	}

	return insights
}

// issuesByCount converts a counter map into a sorted issue list, count
// descending with field name as the tie-break for stable output.
func issuesByCount(counts map[string]int) []model.FirmIssue {
	issues := make([]model.FirmIssue, 0, len(counts))
	for field, count := range counts {
		issues = append(issues, model.FirmIssue{
			Field:    field,
			Count:    count,
			Severity: derivedSeverity(count),
		})
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Count != issues[j].Count {
			return issues[i].Count > issues[j].Count
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}

func derivedSeverity(count int) model.Severity {
	switch {
	case count > 5:
		return model.SeverityHigh
	case count > 2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func snapshotProfile(profile *model.FirmProfile) model.FirmProfile {
	out := *profile
	out.IssueCounts = copyCounts(profile.IssueCounts)
	out.AcceptedSuggestions = copyCounts(profile.AcceptedSuggestions)
	out.StatusTransitions = copyCounts(profile.StatusTransitions)
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
