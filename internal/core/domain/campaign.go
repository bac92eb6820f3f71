package domain

import "time"

// Status is the lifecycle stage of a campaign. Stages only ever move
// forward; the zero value is not a valid stage.
type Status string

const (
	StatusOpen       Status = "open"
	StatusFunded     Status = "funded"
	StatusInProgress Status = "in_progress"
	StatusAudited    Status = "audited"
	StatusFinished   Status = "finished"
)

// statusRank orders the stages. Higher rank means further along.
var statusRank = map[Status]int{
	StatusOpen:       0,
	StatusFunded:     1,
	StatusInProgress: 2,
	StatusAudited:    3,
	StatusFinished:   4,
}

// Rank returns the position of s in the lifecycle order, or -1 for an
// unknown status.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the five lifecycle stages.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes strictly earlier than other in the
// lifecycle order.
func (s Status) Before(other Status) bool {
	return s.Rank() < other.Rank()
}

// Campaign represents a funding campaign run by a cooperative.
// Monetary amounts are stored in integer base units (centavos).
type Campaign struct {
	ID            int64
	Cooperative   string // address of the owning cooperative, fixed at creation
	Name          string
	Description   string
	Area          string
	Goal          int64 // positive, fixed at creation
	Donated       int64 // non-decreasing, starts at 0
	Status        Status
	AuditComments string
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Paid          bool

	// Version is a monotonic stamp bumped on every reconciled change.
	// A confirmation describing an older version is discarded.
	Version uint64
}

// PercentFunded returns how much of the goal has been donated, clamped
// to 100. Over-funded campaigns report 100.
func (c Campaign) PercentFunded() int {
	if c.Goal <= 0 {
		return 0
	}
	pct := int((c.Donated*100 + c.Goal/2) / c.Goal)
	if pct > 100 {
		return 100
	}
	return pct
}

// GoalMet reports whether donations have reached the goal.
func (c Campaign) GoalMet() bool {
	return c.Donated >= c.Goal
}

// PayoutEligible reports whether the campaign may have its payment
// released: it has passed finalization, met its goal and has not been
// paid yet.
func (c Campaign) PayoutEligible() bool {
	return c.Status == StatusAudited && c.GoalMet() && !c.Paid
}

// AcceptsDonations reports whether the campaign is still collecting.
func (c Campaign) AcceptsDonations() bool {
	return c.Status == StatusOpen || c.Status == StatusFunded
}

// CheckInvariants verifies the structural rules every campaign record
// must satisfy regardless of where it came from. It is applied to
// records read back from the ledger before they replace cached state.
func (c Campaign) CheckInvariants() error {
	if !c.Status.Valid() {
		return ErrValidation
	}
	if c.Donated < 0 || c.Goal <= 0 {
		return ErrValidation
	}
	if c.Status == StatusFinished && (!c.Paid || !c.GoalMet()) {
		return ErrValidation
	}
	if (c.FinishedAt != nil) != (c.Status == StatusFinished) {
		return ErrValidation
	}
	return nil
}
