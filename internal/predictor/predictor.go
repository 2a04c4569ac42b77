// Package predictor scores feature mappings with a trained match classifier.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/pable/go-match-stats/internal/features"
)

// ErrModelUnavailable is returned when no trained model can be loaded.
var ErrModelUnavailable = errors.New("predictor: model unavailable")

// MissingFeaturesError lists the features the model needs but the mapping lacks.
type MissingFeaturesError struct {
	Names []string
}

func (e *MissingFeaturesError) Error() string {
	return "predictor: missing features: " + strings.Join(e.Names, ", ")
}

// Prediction is the classifier output for player1.
type Prediction struct {
	WinProbability float64 // probability that player1 wins
	Prediction     bool    // true when player1 is predicted to win
}

// Confidence is the distance of the probability from a coin flip, in [0, 1].
func (p Prediction) Confidence() float64 {
	return math.Abs(2*p.WinProbability - 1)
}

// Predictor scores one feature mapping.
type Predictor interface {
	Predict(ctx context.Context, m features.Mapping) (Prediction, error)
}

// LogisticModel is a logistic regression exported as JSON by the training job.
type LogisticModel struct {
	FeatureCols  []string           `json:"feature_cols"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Threshold    float64            `json:"threshold"`
}

var _ Predictor = (*LogisticModel)(nil)

// LoadModel reads a LogisticModel from path. A missing file yields ErrModelUnavailable.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", ErrModelUnavailable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes a JSON model and checks it is usable.
func ParseModel(data []byte) (*LogisticModel, error) {
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.FeatureCols) == 0 {
		return nil, fmt.Errorf("%w: model has no feature_cols", ErrModelUnavailable)
	}
	for _, name := range m.FeatureCols {
		if _, ok := m.Coefficients[name]; !ok {
			return nil, fmt.Errorf("%w: no coefficient for %q", ErrModelUnavailable, name)
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		m.Threshold = 0.5
	}
	return &m, nil
}

// Predict returns the probability that player1 wins. Every column in
// FeatureCols must be present in m.
func (lm *LogisticModel) Predict(ctx context.Context, m features.Mapping) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	var missing []string
	z := lm.Intercept
	for _, name := range lm.FeatureCols {
		v, ok := m.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		z += lm.Coefficients[name] * v
	}
	if len(missing) > 0 {
		return Prediction{}, &MissingFeaturesError{Names: missing}
	}
	p := sigmoid(z)
	return Prediction{WinProbability: p, Prediction: p >= lm.Threshold}, nil
}

func sigmoid(z float64) float64 {
	if z > 35 {
		return 1.0
	}
	if z < -35 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
