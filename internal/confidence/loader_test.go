package confidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDecision_JSON(t *testing.T) {
	path := writeTemp(t, "decision.json", `{
		"decision": "adopt library X",
		"sources": [
			{"authority": 0.9, "currency": 0.8, "relevance": 0.9, "bias_level": 0.1}
		],
		"has_benchmarks": true,
		"has_quantitative_data": true,
		"expert_consensus_level": 0.9,
		"implementation_complexity": 0.3,
		"time_sensitivity": 0.2,
		"contradictory_evidence": 0.1
	}`)

	decision, err := LoadDecision(path)
	require.NoError(t, err)
	assert.Equal(t, "adopt library X", decision.Decision)
	assert.Len(t, decision.Sources, 1)
	assert.Equal(t, 0.9, decision.Sources[0].Authority)
	assert.True(t, decision.HasBenchmarks)
	assert.Equal(t, 0.2, decision.TimeSensitivity)
}

func TestLoadDecision_YAML(t *testing.T) {
	path := writeTemp(t, "decision.yaml", `
decision: migrate database
sources:
  - authority: 0.7
    currency: 0.6
    relevance: 0.8
    bias_level: 0.2
has_benchmarks: false
has_quantitative_data: true
expert_consensus_level: 0.5
implementation_complexity: 0.7
time_sensitivity: 0.4
contradictory_evidence: 0.3
`)

	decision, err := LoadDecision(path)
	require.NoError(t, err)
	assert.Equal(t, "migrate database", decision.Decision)
	assert.Len(t, decision.Sources, 1)
	assert.Equal(t, 0.7, decision.Sources[0].Authority)
	assert.True(t, decision.HasQuantitativeData)
	assert.Equal(t, 0.3, decision.ContradictoryEvidence)
}

func TestLoadDecision_OutOfRangeRejected(t *testing.T) {
	path := writeTemp(t, "decision.json", `{
		"sources": [{"authority": 1.5, "currency": 0.5, "relevance": 0.5, "bias_level": 0.1}],
		"expert_consensus_level": 0.5
	}`)

	_, err := LoadDecision(path)
	assert.Error(t, err)
}

func TestLoadDecision_NegativeScalarRejected(t *testing.T) {
	path := writeTemp(t, "decision.yaml", "contradictory_evidence: -0.5\n")

	_, err := LoadDecision(path)
	assert.Error(t, err)
}

func TestLoadDecision_UnknownExtension(t *testing.T) {
	path := writeTemp(t, "decision.toml", "x = 1")

	_, err := LoadDecision(path)
	assert.Error(t, err)
}

func TestLoadDecision_MissingFile(t *testing.T) {
	_, err := LoadDecision(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
