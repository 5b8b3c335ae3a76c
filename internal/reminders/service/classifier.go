package service

import (
	"time"

	contactrepo "coachportal_backend/internal/contacts/repository"
)

// AnchorZone selects how a follow-up anchor's wall-clock digits are read.
type AnchorZone int

const (
	// AnchorUTC reads the anchor as an absolute instant.
	AnchorUTC AnchorZone = iota
	// AnchorLocal reinterprets the anchor's digits as business-local civil time.
	AnchorLocal
)

// ContactSnapshot is the attribute set the classifier evaluates: the contact
// row plus the session facts assembled from the session reader.
type ContactSnapshot struct {
	Contact                  contactrepo.Contact
	ActiveFirstSessionDates  []time.Time // earliest first
	ActiveRegularSessions    int
	LatestCompletedSessionAt *time.Time
}

// StageMatch is a classified stage with its firing anchor. A nil Anchor means
// "now" (the trigger instant itself).
type StageMatch struct {
	Stage        Stage
	Rule         StageRule
	Anchor       *time.Time
	Zone         AnchorZone
	DaysInactive int
}

// Classify maps a contact snapshot to at most one lifecycle stage. Rules are
// evaluated in strict priority order because a contact can satisfy several at
// once and the most progressed stage must dominate. Returns false when no
// stage applies or the stage's inactivity threshold is not yet met.
func (t StageTable) Classify(snap ContactSnapshot, now time.Time) (StageMatch, bool) {
	ct := snap.Contact
	if ct.IsDead {
		return StageMatch{}, false
	}

	daysInactive := int(now.Sub(ct.LastActivityAt).Hours() / 24)
	if daysInactive < 1 {
		return StageMatch{}, false
	}

	stage, anchor, zone, ok := t.match(snap, now)
	if !ok {
		return StageMatch{}, false
	}

	rule := t[stage]
	if daysInactive < rule.InactivityThresholdDays {
		return StageMatch{}, false
	}

	return StageMatch{
		Stage:        stage,
		Rule:         rule,
		Anchor:       anchor,
		Zone:         zone,
		DaysInactive: daysInactive,
	}, true
}

func (t StageTable) match(snap ContactSnapshot, now time.Time) (Stage, *time.Time, AnchorZone, bool) {
	ct := snap.Contact

	// 1. Paying customer who attended a completed session and then went quiet.
	if ct.IsCustomer && snap.LatestCompletedSessionAt != nil {
		return StageActiveCustomerDropped, snap.LatestCompletedSessionAt, AnchorUTC, true
	}

	// 2. Trial booked, never converted to a package.
	if len(snap.ActiveFirstSessionDates) > 0 && snap.ActiveRegularSessions == 0 {
		earliest := snap.ActiveFirstSessionDates[0]
		return StagePostFirstSession, &earliest, AnchorUTC, true
	}

	// 3. Call happened, contact is stalling.
	if ct.CallOutcome == contactrepo.CallOutcomeThinkingAboutIt || ct.CallOutcome == contactrepo.CallOutcomeWentCold {
		return StagePostCall, ct.CallDateTime, AnchorLocal, true
	}

	// 4. Call was booked, slot has passed, outcome never recorded.
	if ct.PhoneCallBooked && ct.CallDateTime != nil && ct.CallDateTime.Before(now) {
		return StagePostCall, ct.CallDateTime, AnchorLocal, true
	}

	switch ct.DMStatus {
	case contactrepo.DMStatusRequestPhoneCall:
		return StageRequestPhoneCall, nil, AnchorUTC, true
	case contactrepo.DMStatusStartedTalking:
		return StageStartedTalking, nil, AnchorUTC, true
	case contactrepo.DMStatusFirstMessage:
		return StageFirstMessage, nil, AnchorUTC, true
	}

	return "", nil, AnchorUTC, false
}
