package confidence

// ============================================================================
// Confidence Calculator
// ============================================================================

// Sub-score weights. They sum to 1.0; keep that property if they are
// ever made configurable.
const (
	weightDataCoverage       = 0.30
	weightSourceQuality      = 0.25
	weightExpertConsensus    = 0.20
	weightTimeSensitivity    = 0.15
	weightImplementationRisk = 0.10

	contradictionPenaltyFactor = 15.0
)

// SourceQuality rates a single evidence source. All fields are expected
// in [0,1]; range validation is the caller's responsibility.
type SourceQuality struct {
	Authority float64 `json:"authority" yaml:"authority"`
	Currency  float64 `json:"currency" yaml:"currency"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
	BiasLevel float64 `json:"bias_level" yaml:"bias_level"`
}

// DecisionData is the input record for one confidence calculation.
// It is consumed once and not persisted here.
type DecisionData struct {
	Decision                 string          `json:"decision,omitempty" yaml:"decision,omitempty"`
	Sources                  []SourceQuality `json:"sources" yaml:"sources"`
	HasBenchmarks            bool            `json:"has_benchmarks" yaml:"has_benchmarks"`
	HasQuantitativeData      bool            `json:"has_quantitative_data" yaml:"has_quantitative_data"`
	ExpertConsensusLevel     float64         `json:"expert_consensus_level" yaml:"expert_consensus_level"`
	ImplementationComplexity float64         `json:"implementation_complexity" yaml:"implementation_complexity"`
	TimeSensitivity          float64         `json:"time_sensitivity" yaml:"time_sensitivity"`
	ContradictoryEvidence    float64         `json:"contradictory_evidence" yaml:"contradictory_evidence"`
}

// Breakdown holds the five sub-scores and the contradiction penalty
type Breakdown struct {
	DataCoverage         float64 `json:"data_coverage"`
	SourceQuality        float64 `json:"source_quality"`
	ExpertConsensus      float64 `json:"expert_consensus"`
	TimeSensitivity      float64 `json:"time_sensitivity"`
	ImplementationRisk   float64 `json:"implementation_risk"`
	ContradictionPenalty float64 `json:"contradiction_penalty"`
}

// RiskLevel labels how risky acting on the decision would be
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Recommendation labels
const (
	RecommendProceed      = "proceed"
	RecommendMonitoring   = "proceed with monitoring"
	RecommendMoreResearch = "more research needed"
	RecommendDoNotProceed = "do not proceed"
)

// Result is the outcome of one confidence calculation
type Result struct {
	Overall        float64   `json:"overall"`
	Breakdown      Breakdown `json:"breakdown"`
	Recommendation string    `json:"recommendation"`
	RiskLevel      RiskLevel `json:"risk_level"`
	NextSteps      []string  `json:"next_steps"`
}

// Calculate combines the five weighted sub-scores and the contradiction
// penalty into a 0-100 confidence score with a recommendation, risk label,
// and ordered next-step suggestions. It is a pure function: no I/O, no
// shared state, safe to call concurrently.
func Calculate(decision DecisionData) Result {
	breakdown := Breakdown{
		DataCoverage:         dataCoverageScore(decision),
		SourceQuality:        sourceQualityScore(decision.Sources),
		ExpertConsensus:      decision.ExpertConsensusLevel * 100,
		TimeSensitivity:      (1-decision.TimeSensitivity)*80 + 20,
		ImplementationRisk:   (1 - decision.ImplementationComplexity) * 100,
		ContradictionPenalty: decision.ContradictoryEvidence * contradictionPenaltyFactor,
	}

	overall := breakdown.DataCoverage*weightDataCoverage +
		breakdown.SourceQuality*weightSourceQuality +
		breakdown.ExpertConsensus*weightExpertConsensus +
		breakdown.TimeSensitivity*weightTimeSensitivity +
		breakdown.ImplementationRisk*weightImplementationRisk

	overall -= breakdown.ContradictionPenalty
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	recommendation, risk := classify(overall)

	return Result{
		Overall:        overall,
		Breakdown:      breakdown,
		Recommendation: recommendation,
		RiskLevel:      risk,
		NextSteps:      nextSteps(decision, recommendation),
	}
}

// dataCoverageScore rewards source count, quantitative data, and
// benchmarks, capped at 100
func dataCoverageScore(decision DecisionData) float64 {
	var score float64
	switch n := len(decision.Sources); {
	case n >= 4:
		score = 40
	case n >= 2:
		score = 25
	case n >= 1:
		score = 10
	}
	if decision.HasQuantitativeData {
		score += 30
	}
	if decision.HasBenchmarks {
		score += 30
	}
	if score > 100 {
		score = 100
	}
	return score
}

// sourceQualityScore averages per-source quality, each floored at 0,
// capped at 100. No sources scores 0.
func sourceQualityScore(sources []SourceQuality) float64 {
	if len(sources) == 0 {
		return 0
	}
	var total float64
	for _, s := range sources {
		score := s.Authority*40 + s.Currency*30 + s.Relevance*20 - s.BiasLevel*10
		if score < 0 {
			score = 0
		}
		total += score
	}
	avg := total / float64(len(sources))
	if avg > 100 {
		avg = 100
	}
	return avg
}

func classify(overall float64) (string, RiskLevel) {
	switch {
	case overall >= 90:
		return RecommendProceed, RiskLow
	case overall >= 70:
		return RecommendMonitoring, RiskMedium
	case overall >= 50:
		return RecommendMoreResearch, RiskHigh
	default:
		return RecommendDoNotProceed, RiskVeryHigh
	}
}

// nextSteps builds the ordered suggestion list: a tier-specific lead,
// flag-driven follow-ups, and an urgency note prepended when the decision
// is highly time-sensitive.
func nextSteps(decision DecisionData, recommendation string) []string {
	var steps []string

	switch recommendation {
	case RecommendProceed:
		steps = append(steps, "Document the decision rationale and proceed with implementation")
	case RecommendMonitoring:
		steps = append(steps, "Proceed, but define checkpoints to monitor outcomes")
	case RecommendMoreResearch:
		steps = append(steps, "Collect additional evidence before committing")
	default:
		steps = append(steps, "Re-evaluate the decision once stronger evidence is available")
	}

	if !decision.HasQuantitativeData {
		steps = append(steps, "Gather quantitative data to strengthen coverage")
	}
	if len(decision.Sources) < 3 {
		steps = append(steps, "Consult at least three independent sources")
	}
	if decision.ContradictoryEvidence > 0.5 {
		steps = append(steps, "Investigate and resolve contradictory evidence")
	}

	if decision.TimeSensitivity > 0.7 {
		steps = append([]string{"Time-sensitive decision: prioritize the steps below"}, steps...)
	}

	return steps
}
