package segment

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavapop/outreach-api/internal/model"
)

func cadenceOf(v float64) *float64 { return &v }

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name           string
		in             RiskInput
		wantTier       model.RiskTier
		wantLikelihood float64
	}{
		{
			name:           "unseen past 60 days is lost",
			in:             RiskInput{DaysSinceLastVisit: 61, TransactionCount: 30, AvgDaysBetween: cadenceOf(10)},
			wantTier:       model.RiskLost,
			wantLikelihood: 0,
		},
		{
			name:           "on-cadence loyal caps at 100",
			in:             RiskInput{DaysSinceLastVisit: 20, TransactionCount: 8, AvgDaysBetween: cadenceOf(20), Segment: model.SegmentLoyal},
			wantTier:       model.RiskHealthy,
			wantLikelihood: 100,
		},
		{
			name:           "single purchase registered this week",
			in:             RiskInput{DaysSinceLastVisit: 3, DaysSinceRegistration: 3, TransactionCount: 1},
			wantTier:       model.RiskNew,
			wantLikelihood: 70,
		},
		{
			name:           "single purchase registered two weeks ago",
			in:             RiskInput{DaysSinceLastVisit: 12, DaysSinceRegistration: 12, TransactionCount: 1},
			wantTier:       model.RiskNew,
			wantLikelihood: 50,
		},
		{
			name:           "single purchase registered long ago",
			in:             RiskInput{DaysSinceLastVisit: 50, DaysSinceRegistration: 200, TransactionCount: 1},
			wantTier:       model.RiskNew,
			wantLikelihood: 5,
		},
		{
			name:           "repeat customer with no cadence falls back to monitor",
			in:             RiskInput{DaysSinceLastVisit: 10, TransactionCount: 4},
			wantTier:       model.RiskMonitor,
			wantLikelihood: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, likelihood := ClassifyRisk(tt.in)
			assert.Equal(t, tt.wantTier, tier)
			assert.InDelta(t, tt.wantLikelihood, likelihood, 0.001)
		})
	}
}

func TestClassifyRiskDecayTiers(t *testing.T) {
	// One cadence behind with no bonus: 100*e^-1 ~= 36.8 -> monitor
	tier, likelihood := ClassifyRisk(RiskInput{
		DaysSinceLastVisit: 40,
		TransactionCount:   6,
		AvgDaysBetween:     cadenceOf(20),
		Segment:            model.SegmentPotential,
	})
	assert.Equal(t, model.RiskMonitor, tier)
	assert.InDelta(t, 100*math.Exp(-1), likelihood, 0.001)

	// Inactive bonus halves it into at-risk
	tier, likelihood = ClassifyRisk(RiskInput{
		DaysSinceLastVisit: 40,
		TransactionCount:   6,
		AvgDaysBetween:     cadenceOf(20),
		Segment:            model.SegmentInactive,
	})
	assert.Equal(t, model.RiskAtRisk, tier)
	assert.InDelta(t, 50*math.Exp(-1), likelihood, 0.001)

	// Two cadences behind, inactive: churning
	tier, _ = ClassifyRisk(RiskInput{
		DaysSinceLastVisit: 60,
		TransactionCount:   6,
		AvgDaysBetween:     cadenceOf(20),
		Segment:            model.SegmentInactive,
	})
	assert.Equal(t, model.RiskChurning, tier)
}

func TestClassifyRiskIsDeterministic(t *testing.T) {
	in := RiskInput{DaysSinceLastVisit: 25, TransactionCount: 9, AvgDaysBetween: cadenceOf(18), Segment: model.SegmentLoyal}
	tier1, l1 := ClassifyRisk(in)
	tier2, l2 := ClassifyRisk(in)
	assert.Equal(t, tier1, tier2)
	assert.Equal(t, l1, l2)
}

func TestRFMScores(t *testing.T) {
	assert.Equal(t, 5, ScoreRecency(7))
	assert.Equal(t, 4, ScoreRecency(14))
	assert.Equal(t, 3, ScoreRecency(30))
	assert.Equal(t, 2, ScoreRecency(60))
	assert.Equal(t, 1, ScoreRecency(61))

	assert.Equal(t, 5, ScoreFrequency(20))
	assert.Equal(t, 4, ScoreFrequency(10))
	assert.Equal(t, 3, ScoreFrequency(5))
	assert.Equal(t, 2, ScoreFrequency(2))
	assert.Equal(t, 1, ScoreFrequency(1))

	assert.Equal(t, 5, ScoreMonetary(1000))
	assert.Equal(t, 4, ScoreMonetary(500))
	assert.Equal(t, 3, ScoreMonetary(200))
	assert.Equal(t, 2, ScoreMonetary(80))
	assert.Equal(t, 1, ScoreMonetary(79.99))
}

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		name                  string
		r, f, m               int
		daysSinceRegistration int
		transactionCount      int
		want                  model.Segment
	}{
		{"fresh registration wins over scores", 5, 2, 2, 10, 2, model.SegmentNewcomer},
		{"high everything is champion", 5, 5, 4, 400, 40, model.SegmentChampion},
		{"regular repeat is loyal", 3, 3, 2, 400, 6, model.SegmentLoyal},
		{"recent but infrequent is potential", 4, 2, 2, 400, 3, model.SegmentPotential},
		{"fading is cooling", 2, 4, 4, 400, 15, model.SegmentCooling},
		{"gone is inactive", 1, 5, 5, 400, 30, model.SegmentInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySegment(tt.r, tt.f, tt.m, tt.daysSinceRegistration, tt.transactionCount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplySetsComputedBlock(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Now()
	first := now.AddDate(0, 0, -100)
	last := now.AddDate(0, 0, -20)
	registered := now.AddDate(0, 0, -100)
	avg := 20.0

	c := &model.Customer{
		Doc:              "12345678901",
		RegisteredAt:     &registered,
		FirstVisit:       &first,
		LastVisit:        &last,
		TransactionCount: 5,
		TotalSpent:       300,
		AvgDaysBetween:   &avg,
	}

	Apply(c, now, loc)

	assert.Equal(t, 3, c.RecencyScore)
	assert.Equal(t, 3, c.FrequencyScore)
	assert.Equal(t, 3, c.MonetaryScore)
	assert.Equal(t, model.SegmentLoyal, c.Segment)
	// ratio 1.0 with loyal bonus caps at 100
	assert.Equal(t, model.RiskHealthy, c.RiskTier)
	assert.InDelta(t, 100, c.ReturnLikelihood, 0.001)
}
