package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strongDecision() DecisionData {
	return DecisionData{
		Sources: []SourceQuality{
			{Authority: 0.9, Currency: 0.8, Relevance: 0.9, BiasLevel: 0.1},
			{Authority: 0.9, Currency: 0.8, Relevance: 0.9, BiasLevel: 0.1},
			{Authority: 0.9, Currency: 0.8, Relevance: 0.9, BiasLevel: 0.1},
			{Authority: 0.9, Currency: 0.8, Relevance: 0.9, BiasLevel: 0.1},
		},
		HasBenchmarks:            true,
		HasQuantitativeData:      true,
		ExpertConsensusLevel:     0.9,
		ImplementationComplexity: 0.3,
		TimeSensitivity:          0.2,
		ContradictoryEvidence:    0.1,
	}
}

func TestCalculate_StrongDecision(t *testing.T) {
	result := Calculate(strongDecision())

	// coverage 100*.30 + quality 77*.25 + consensus 90*.20 +
	// time 84*.15 + risk 70*.10 - penalty 1.5 = 85.35
	assert.InDelta(t, 100.0, result.Breakdown.DataCoverage, 1e-9)
	assert.InDelta(t, 77.0, result.Breakdown.SourceQuality, 1e-9)
	assert.InDelta(t, 90.0, result.Breakdown.ExpertConsensus, 1e-9)
	assert.InDelta(t, 84.0, result.Breakdown.TimeSensitivity, 1e-9)
	assert.InDelta(t, 70.0, result.Breakdown.ImplementationRisk, 1e-9)
	assert.InDelta(t, 1.5, result.Breakdown.ContradictionPenalty, 1e-9)
	assert.InDelta(t, 85.35, result.Overall, 1e-9)
	assert.Equal(t, RecommendMonitoring, result.Recommendation)
	assert.Equal(t, RiskMedium, result.RiskLevel)
}

func TestCalculate_WorstCase(t *testing.T) {
	result := Calculate(DecisionData{
		ExpertConsensusLevel:     0,
		ImplementationComplexity: 1,
		TimeSensitivity:          1,
		ContradictoryEvidence:    1,
	})

	assert.Equal(t, 0.0, result.Overall)
	assert.Equal(t, RecommendDoNotProceed, result.Recommendation)
	assert.Equal(t, RiskVeryHigh, result.RiskLevel)
}

func TestCalculate_ProceedBreakpoint(t *testing.T) {
	// Drive every sub-score to its maximum with no penalty.
	decision := strongDecision()
	decision.Sources = []SourceQuality{
		{Authority: 1, Currency: 1, Relevance: 1, BiasLevel: 0},
		{Authority: 1, Currency: 1, Relevance: 1, BiasLevel: 0},
		{Authority: 1, Currency: 1, Relevance: 1, BiasLevel: 0},
		{Authority: 1, Currency: 1, Relevance: 1, BiasLevel: 0},
	}
	decision.ExpertConsensusLevel = 1
	decision.ImplementationComplexity = 0
	decision.TimeSensitivity = 0
	decision.ContradictoryEvidence = 0

	result := Calculate(decision)

	// coverage 100, quality 90, consensus 100, time 100, risk 100 -> 97.5
	assert.InDelta(t, 97.5, result.Overall, 1e-9)
	assert.Equal(t, RecommendProceed, result.Recommendation)
	assert.Equal(t, RiskLow, result.RiskLevel)
}

func TestCalculate_ContradictionMonotonicity(t *testing.T) {
	decision := strongDecision()

	prev := 101.0
	for c := 0.0; c <= 1.0; c += 0.1 {
		decision.ContradictoryEvidence = c
		overall := Calculate(decision).Overall
		assert.LessOrEqual(t, overall, prev,
			"confidence must not increase with contradiction %f", c)
		prev = overall
	}
}

func TestCalculate_Bounds(t *testing.T) {
	cases := []DecisionData{
		{},
		strongDecision(),
		{Sources: []SourceQuality{{Authority: 1, Currency: 1, Relevance: 1}}},
		{HasBenchmarks: true, HasQuantitativeData: true, ExpertConsensusLevel: 1},
		{TimeSensitivity: 1, ImplementationComplexity: 1, ContradictoryEvidence: 1},
	}

	for _, decision := range cases {
		result := Calculate(decision)
		assert.GreaterOrEqual(t, result.Overall, 0.0)
		assert.LessOrEqual(t, result.Overall, 100.0)
	}
}

func TestDataCoverageScore(t *testing.T) {
	src := SourceQuality{Authority: 0.5}
	cases := []struct {
		name     string
		decision DecisionData
		want     float64
	}{
		{"no sources", DecisionData{}, 0},
		{"one source", DecisionData{Sources: []SourceQuality{src}}, 10},
		{"two sources", DecisionData{Sources: []SourceQuality{src, src}}, 25},
		{"four sources", DecisionData{Sources: []SourceQuality{src, src, src, src}}, 40},
		{"quantitative only", DecisionData{HasQuantitativeData: true}, 30},
		{"benchmarks only", DecisionData{HasBenchmarks: true}, 30},
		{"everything caps at 100", DecisionData{
			Sources:             []SourceQuality{src, src, src, src},
			HasQuantitativeData: true,
			HasBenchmarks:       true,
		}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, dataCoverageScore(tc.decision), 1e-9)
		})
	}
}

func TestSourceQualityScore(t *testing.T) {
	assert.Equal(t, 0.0, sourceQualityScore(nil))

	// Heavy bias floors a source at 0 instead of going negative.
	biased := []SourceQuality{{BiasLevel: 1}}
	assert.Equal(t, 0.0, sourceQualityScore(biased))

	mixed := []SourceQuality{
		{Authority: 1, Currency: 1, Relevance: 1}, // 90
		{BiasLevel: 1},                            // floored to 0
	}
	assert.InDelta(t, 45.0, sourceQualityScore(mixed), 1e-9)
}

func TestClassifyBreakpoints(t *testing.T) {
	cases := []struct {
		overall float64
		rec     string
		risk    RiskLevel
	}{
		{95, RecommendProceed, RiskLow},
		{90, RecommendProceed, RiskLow},
		{89.99, RecommendMonitoring, RiskMedium},
		{70, RecommendMonitoring, RiskMedium},
		{69.99, RecommendMoreResearch, RiskHigh},
		{50, RecommendMoreResearch, RiskHigh},
		{49.99, RecommendDoNotProceed, RiskVeryHigh},
		{0, RecommendDoNotProceed, RiskVeryHigh},
	}

	for _, tc := range cases {
		rec, risk := classify(tc.overall)
		assert.Equal(t, tc.rec, rec, "overall=%f", tc.overall)
		assert.Equal(t, tc.risk, risk, "overall=%f", tc.overall)
	}
}

func TestNextSteps_FlagDriven(t *testing.T) {
	decision := DecisionData{
		Sources:               []SourceQuality{{Authority: 0.5}},
		ContradictoryEvidence: 0.8,
	}
	steps := nextSteps(decision, RecommendMoreResearch)

	assert.Contains(t, steps, "Gather quantitative data to strengthen coverage")
	assert.Contains(t, steps, "Consult at least three independent sources")
	assert.Contains(t, steps, "Investigate and resolve contradictory evidence")
}

func TestNextSteps_UrgencyPrepended(t *testing.T) {
	decision := strongDecision()
	decision.TimeSensitivity = 0.9

	steps := nextSteps(decision, RecommendMonitoring)
	assert.NotEmpty(t, steps)
	assert.Equal(t, "Time-sensitive decision: prioritize the steps below", steps[0])
}

func TestNextSteps_NoUrgencyAtLowSensitivity(t *testing.T) {
	decision := strongDecision()
	decision.TimeSensitivity = 0.2

	steps := nextSteps(decision, RecommendMonitoring)
	assert.NotEmpty(t, steps)
	assert.NotEqual(t, "Time-sensitive decision: prioritize the steps below", steps[0])
}
