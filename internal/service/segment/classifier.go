package segment

import (
	"math"
	"time"

	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/pkg/dateutil"
)

// Classification thresholds. These are the single source of truth for both
// the bulk refresh and the single-customer path; the formula must never be
// duplicated elsewhere.
const (
	// A customer unseen for this many days is lost regardless of cadence.
	lostAfterDays = 60

	// Likelihood floors for the cadence-decay tiers
	healthyAbove = 60.0
	monitorAbove = 30.0
	atRiskAbove  = 15.0

	// Fallback when a repeat customer has no usable cadence
	noCadenceLikelihood = 40.0

	// Registration window for the newcomer segment
	newcomerMaxDays         = 30
	newcomerMaxTransactions = 2
)

// Segment multipliers applied to the cadence-decay likelihood. Champion is
// the VIP tier.
var segmentBonus = map[model.Segment]float64{
	model.SegmentChampion:  1.4,
	model.SegmentLoyal:     1.2,
	model.SegmentPotential: 1.0,
	model.SegmentNewcomer:  0.9,
	model.SegmentCooling:   0.8,
	model.SegmentInactive:  0.5,
}

// RiskInput carries the raw facts the risk classifier needs. Day counts are
// in the business's local calendar.
type RiskInput struct {
	DaysSinceLastVisit    int
	DaysSinceRegistration int
	TransactionCount      int
	AvgDaysBetween        *float64
	Segment               model.Segment
}

// ClassifyRisk turns visit facts into a churn-risk tier and a 0-100 return
// likelihood. Pure and deterministic.
func ClassifyRisk(in RiskInput) (model.RiskTier, float64) {
	if in.DaysSinceLastVisit > lostAfterDays {
		return model.RiskLost, 0
	}

	if in.TransactionCount <= 1 {
		return model.RiskNew, newCustomerLikelihood(in.DaysSinceRegistration)
	}

	if in.AvgDaysBetween == nil || *in.AvgDaysBetween <= 0 {
		return model.RiskMonitor, noCadenceLikelihood
	}

	ratio := float64(in.DaysSinceLastVisit) / *in.AvgDaysBetween
	likelihood := 100 * math.Exp(-math.Max(0, ratio-1))

	if bonus, ok := segmentBonus[in.Segment]; ok {
		likelihood *= bonus
	}
	if likelihood > 100 {
		likelihood = 100
	}

	switch {
	case likelihood > healthyAbove:
		return model.RiskHealthy, likelihood
	case likelihood > monitorAbove:
		return model.RiskMonitor, likelihood
	case likelihood > atRiskAbove:
		return model.RiskAtRisk, likelihood
	default:
		return model.RiskChurning, likelihood
	}
}

func newCustomerLikelihood(daysSinceRegistration int) float64 {
	switch {
	case daysSinceRegistration <= 7:
		return 70
	case daysSinceRegistration <= 14:
		return 50
	case daysSinceRegistration <= 30:
		return 30
	case daysSinceRegistration <= 60:
		return 15
	default:
		return 5
	}
}

// ScoreRecency buckets days since last visit into a 1-5 score.
func ScoreRecency(daysSinceLastVisit int) int {
	switch {
	case daysSinceLastVisit <= 7:
		return 5
	case daysSinceLastVisit <= 14:
		return 4
	case daysSinceLastVisit <= 30:
		return 3
	case daysSinceLastVisit <= 60:
		return 2
	default:
		return 1
	}
}

// ScoreFrequency buckets lifetime transaction count into a 1-5 score.
func ScoreFrequency(transactionCount int) int {
	switch {
	case transactionCount >= 20:
		return 5
	case transactionCount >= 10:
		return 4
	case transactionCount >= 5:
		return 3
	case transactionCount >= 2:
		return 2
	default:
		return 1
	}
}

// ScoreMonetary buckets lifetime spend (BRL) into a 1-5 score.
func ScoreMonetary(totalSpent float64) int {
	switch {
	case totalSpent >= 1000:
		return 5
	case totalSpent >= 500:
		return 4
	case totalSpent >= 200:
		return 3
	case totalSpent >= 80:
		return 2
	default:
		return 1
	}
}

// ClassifySegment maps RFM scores plus registration age to a segment label,
// first match wins.
func ClassifySegment(recency, frequency, monetary, daysSinceRegistration, transactionCount int) model.Segment {
	switch {
	case daysSinceRegistration <= newcomerMaxDays && transactionCount <= newcomerMaxTransactions:
		return model.SegmentNewcomer
	case recency >= 4 && frequency >= 4 && monetary >= 4:
		return model.SegmentChampion
	case recency >= 3 && frequency >= 3:
		return model.SegmentLoyal
	case recency >= 3:
		return model.SegmentPotential
	case recency == 2:
		return model.SegmentCooling
	default:
		return model.SegmentInactive
	}
}

// Apply recomputes every derived field on the customer from its raw facts.
// This is the only writer of the computed block.
func Apply(c *model.Customer, now time.Time, loc *time.Location) {
	daysSinceLastVisit := 0
	if c.LastVisit != nil {
		daysSinceLastVisit = dateutil.DaysBetween(*c.LastVisit, now, loc)
	}
	daysSinceRegistration := 0
	if c.RegisteredAt != nil {
		daysSinceRegistration = dateutil.DaysBetween(*c.RegisteredAt, now, loc)
	} else if c.FirstVisit != nil {
		daysSinceRegistration = dateutil.DaysBetween(*c.FirstVisit, now, loc)
	}

	c.RecencyScore = ScoreRecency(daysSinceLastVisit)
	c.FrequencyScore = ScoreFrequency(c.TransactionCount)
	c.MonetaryScore = ScoreMonetary(c.TotalSpent)
	c.Segment = ClassifySegment(c.RecencyScore, c.FrequencyScore, c.MonetaryScore, daysSinceRegistration, c.TransactionCount)

	tier, likelihood := ClassifyRisk(RiskInput{
		DaysSinceLastVisit:    daysSinceLastVisit,
		DaysSinceRegistration: daysSinceRegistration,
		TransactionCount:      c.TransactionCount,
		AvgDaysBetween:        c.AvgDaysBetween,
		Segment:               c.Segment,
	})
	c.RiskTier = tier
	c.ReturnLikelihood = likelihood
}
