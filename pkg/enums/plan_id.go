package enums

import "fmt"

// PlanID names a Thankaroo plan tier.
type PlanID string

const (
	PlanFree    PlanID = "free"
	PlanWedding PlanID = "wedding"
	PlanPro     PlanID = "pro"
)

var validPlanIDs = []PlanID{
	PlanFree,
	PlanWedding,
	PlanPro,
}

// String implements fmt.Stringer.
func (p PlanID) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PlanID) IsValid() bool {
	for _, candidate := range validPlanIDs {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanID converts raw input into a PlanID.
func ParsePlanID(value string) (PlanID, error) {
	for _, candidate := range validPlanIDs {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan id %q", value)
}
