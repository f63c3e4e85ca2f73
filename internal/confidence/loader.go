package confidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Validate checks that all scalar fields lie in [0,1]. The calculator
// itself never validates; callers that accept external documents should.
func (d DecisionData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Sources),
		validation.Field(&d.ExpertConsensusLevel, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&d.ImplementationComplexity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&d.TimeSensitivity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&d.ContradictoryEvidence, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Validate checks that all source ratings lie in [0,1]
func (s SourceQuality) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Authority, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&s.Currency, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&s.Relevance, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&s.BiasLevel, validation.Min(0.0), validation.Max(1.0)),
	)
}

// LoadDecision reads a decision document from a JSON or YAML file
// (selected by extension) and validates its ranges.
func LoadDecision(path string) (*DecisionData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision file: %w", err)
	}

	var decision DecisionData
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &decision); err != nil {
			return nil, fmt.Errorf("failed to parse decision JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &decision); err != nil {
			return nil, fmt.Errorf("failed to parse decision YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported decision file extension: %s", ext)
	}

	if err := decision.Validate(); err != nil {
		return nil, fmt.Errorf("decision validation failed: %w", err)
	}

	return &decision, nil
}
