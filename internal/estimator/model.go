package estimator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var ErrArtifactLoad = errors.New("load model artifacts")

const (
	KindLinear = "linear"
	KindForest = "forest"
)

// Scaler is a fitted standard scaler: x' = (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) validate() error {
	if len(s.Mean) != numFeatures || len(s.Scale) != numFeatures {
		return fmt.Errorf("scaler expects %d features, got mean=%d scale=%d", numFeatures, len(s.Mean), len(s.Scale))
	}
	for i, sc := range s.Scale {
		if sc == 0 || math.IsNaN(sc) || math.IsInf(sc, 0) {
			return fmt.Errorf("scaler has invalid scale at %d: %v", i, sc)
		}
	}
	return nil
}

func (s *Scaler) transform(x [numFeatures]float64) [numFeatures]float64 {
	var out [numFeatures]float64
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// Tree uses the flat node layout of a fitted regression tree. A node is a leaf when its
// left child is -1, otherwise x[feature] <= threshold goes left.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t *Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("tree node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 {
			if right != -1 {
				return fmt.Errorf("node %d: half leaf", i)
			}
			continue
		}
		// children always come after their parent, which also rules out cycles
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

func (t *Tree) predict(x [numFeatures]float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

type regressorArtifact struct {
	Kind      string    `json:"kind"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Trees     []Tree    `json:"trees"`
}

func (a *regressorArtifact) validate() error {
	switch a.Kind {
	case KindLinear:
		if len(a.Coef) != numFeatures {
			return fmt.Errorf("linear model expects %d coefficients, got %d", numFeatures, len(a.Coef))
		}
	case KindForest:
		if len(a.Trees) == 0 {
			return errors.New("forest model has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown model kind: %q", a.Kind)
	}
	return nil
}

func (a *regressorArtifact) predict(x [numFeatures]float64) float64 {
	if a.Kind == KindLinear {
		sum := a.Intercept
		for i := range x {
			sum += a.Coef[i] * x[i]
		}
		return sum
	}

	var sum float64
	for i := range a.Trees {
		sum += a.Trees[i].predict(x)
	}
	return sum / float64(len(a.Trees))
}

var _ Predictor = (*Model)(nil)

// Model is the loaded scaler and regressor pair. It is never modified after loading
// and is safe for concurrent use.
type Model struct {
	scaler    Scaler
	regressor regressorArtifact
}

func (m *Model) Kind() string {
	return m.regressor.Kind
}

// Predict scales the features, runs the regressor and rounds to 2 decimals.
func (m *Model) Predict(f Features) (float64, error) {
	x := f.Vector()
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %d is not a finite number", i)
		}
	}
	return round2(m.regressor.predict(m.scaler.transform(x))), nil
}

// LoadModel reads both artifacts. Any failure wraps ErrArtifactLoad.
func LoadModel(modelPath, scalerPath string) (*Model, error) {
	m := &Model{}
	if err := readArtifact(scalerPath, &m.scaler); err != nil {
		return nil, err
	}
	if err := m.scaler.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrArtifactLoad, scalerPath, err)
	}

	if err := readArtifact(modelPath, &m.regressor); err != nil {
		return nil, err
	}
	if err := m.regressor.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrArtifactLoad, modelPath, err)
	}

	return m, nil
}

func readArtifact(path string, into any) error {
	if path == "" {
		return fmt.Errorf("%w: empty artifact path", ErrArtifactLoad)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrArtifactLoad, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrArtifactLoad, path, err)
	}
	return nil
}
