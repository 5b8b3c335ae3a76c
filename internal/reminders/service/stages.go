package service

import "coachportal_backend/internal/reminders/repository"

// Stage is a contact's position in the sales/retention funnel.
type Stage string

const (
	StageActiveCustomerDropped Stage = "active_customer_dropped"
	StagePostFirstSession      Stage = "post_first_session"
	StagePostCall              Stage = "post_call"
	StageRequestPhoneCall      Stage = "request_phone_call"
	StageStartedTalking        Stage = "started_talking"
	StageFirstMessage          Stage = "first_message"
)

// StageRule maps a stage to its follow-up category and how long a contact
// must be inactive before the stage fires. Session-based stages anchor to an
// objective session date and bypass follow-up suppression.
type StageRule struct {
	Category                repository.ReminderCategory
	InactivityThresholdDays int
	SessionBased            bool
}

// StageTable is the per-stage rule lookup. It is configuration, not code:
// thresholds are tunable per deployment without a rebuild.
type StageTable map[Stage]StageRule

// DefaultStageTable returns the production stage rules.
func DefaultStageTable() StageTable {
	return StageTable{
		StageActiveCustomerDropped: {Category: repository.CategoryPostSessionFollowUp, InactivityThresholdDays: 1, SessionBased: true},
		StagePostFirstSession:      {Category: repository.CategoryPostFirstSessionFollowUp, InactivityThresholdDays: 1, SessionBased: true},
		StagePostCall:              {Category: repository.CategoryPostCallFollowUp, InactivityThresholdDays: 1},
		StageRequestPhoneCall:      {Category: repository.CategoryDMFollowUp, InactivityThresholdDays: 1},
		StageStartedTalking:        {Category: repository.CategoryDMFollowUp, InactivityThresholdDays: 1},
		StageFirstMessage:          {Category: repository.CategoryDMFollowUp, InactivityThresholdDays: 1},
	}
}

// WithOverrides returns a copy of the table with per-stage threshold
// overrides applied. Unknown stage names are ignored.
func (t StageTable) WithOverrides(overrides map[string]int) StageTable {
	if len(overrides) == 0 {
		return t
	}

	out := make(StageTable, len(t))
	for stage, rule := range t {
		if days, ok := overrides[string(stage)]; ok {
			rule.InactivityThresholdDays = days
		}
		out[stage] = rule
	}
	return out
}
