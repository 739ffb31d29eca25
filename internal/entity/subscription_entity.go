package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PlanType string

const (
	PlanMonthly   PlanType = "MONTHLY"
	PlanQuarterly PlanType = "QUARTERLY"
	PlanAnnual    PlanType = "ANNUAL"
)

// ParsePlanType accepts any casing of a known plan word.
func ParsePlanType(s string) (PlanType, bool) {
	switch PlanType(strings.ToUpper(strings.TrimSpace(s))) {
	case PlanMonthly:
		return PlanMonthly, true
	case PlanQuarterly:
		return PlanQuarterly, true
	case PlanAnnual:
		return PlanAnnual, true
	}
	return "", false
}

// ExpiryFrom adds the plan period to from using calendar arithmetic.
func (p PlanType) ExpiryFrom(from time.Time) time.Time {
	switch p {
	case PlanQuarterly:
		return from.AddDate(0, 3, 0)
	case PlanAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

type VipSubscription struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	IsActive  bool
	PlanType  PlanType
	StartDate time.Time
	ExpiresAt time.Time
	AutoRenew bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivelyActive recomputes activeness at read time; expiry is never
// written back.
func (s *VipSubscription) EffectivelyActive(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}
