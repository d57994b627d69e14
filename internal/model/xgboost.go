package model

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// xgbDocument mirrors the parts of XGBoost's JSON model format the evaluator reads.
type xgbDocument struct {
	Version []int `json:"version"`
	Learner struct {
		FeatureNames      []string `json:"feature_names"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
			NumTarget  string `json:"num_target"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Name       string      `json:"name"`
			Model      xgbForest   `json:"model"`
			Gbtree     *xgbBoosted `json:"gbtree"`
			WeightDrop []float64   `json:"weight_drop"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

type xgbBoosted struct {
	Model xgbForest `json:"model"`
}

type xgbForest struct {
	Trees []xgbTree `json:"trees"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float32 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
	SplitType       []int     `json:"split_type"`
}

// flexBools decodes default_left, written as 0/1 integers by XGBoost 1.x and
// 2.x and as booleans by some exporters.
type flexBools []bool

func (f *flexBools) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, r := range raw {
		switch s := string(bytes.TrimSpace(r)); s {
		case "true", "1":
			out[i] = true
		case "false", "0":
		default:
			return fmt.Errorf("default_left[%d]: unexpected value %s", i, s)
		}
	}
	*f = out
	return nil
}

// tree is a decoded regression tree. Leaves have left == -1 and store their
// value in cond.
type tree struct {
	left        []int
	right       []int
	index       []int
	cond        []float32
	defaultLeft []bool
}

// XGBoost evaluates a gradient-boosted tree ensemble in-process.
type XGBoost struct {
	trees      []tree
	weights    []float64
	baseMargin float64
	link       func(float64) float64
	info       Info
}

// LoadXGBoostFile reads an XGBoost model saved with save_model("*.json").
func LoadXGBoostFile(path string) (*XGBoost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	m, err := ParseXGBoost(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	m.info.Path = path
	return m, nil
}

// ParseXGBoost decodes an XGBoost JSON model.
func ParseXGBoost(data []byte) (*XGBoost, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode xgboost json: %w", err)
	}
	l := doc.Learner

	if n := atoiOr(l.LearnerModelParam.NumClass, 0); n > 1 {
		return nil, fmt.Errorf("%w: multi-class model (%d classes)", ErrUnsupportedModel, n)
	}
	if n := atoiOr(l.LearnerModelParam.NumTarget, 1); n > 1 {
		return nil, fmt.Errorf("%w: multi-target model (%d targets)", ErrUnsupportedModel, n)
	}

	forest := l.GradientBooster.Model
	var weights []float64
	switch l.GradientBooster.Name {
	case "gbtree", "":
	case "dart":
		if l.GradientBooster.Gbtree == nil {
			return nil, fmt.Errorf("%w: dart booster without gbtree section", ErrUnsupportedModel)
		}
		forest = l.GradientBooster.Gbtree.Model
		weights = l.GradientBooster.WeightDrop
	default:
		return nil, fmt.Errorf("%w: booster %q", ErrUnsupportedModel, l.GradientBooster.Name)
	}
	if len(forest.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrUnsupportedModel)
	}

	numFeatures := atoiOr(l.LearnerModelParam.NumFeature, len(l.FeatureNames))
	if len(l.FeatureNames) > 0 && len(l.FeatureNames) != numFeatures {
		return nil, fmt.Errorf("%w: %d feature names for %d features", ErrUnsupportedModel, len(l.FeatureNames), numFeatures)
	}
	if numFeatures <= 0 {
		return nil, fmt.Errorf("%w: model declares neither num_feature nor feature_names", ErrUnsupportedModel)
	}

	m := &XGBoost{trees: make([]tree, 0, len(forest.Trees))}
	for i, t := range forest.Trees {
		decoded, err := decodeTree(t, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, decoded)
	}

	m.weights = make([]float64, len(m.trees))
	for i := range m.weights {
		m.weights[i] = 1
		if i < len(weights) {
			m.weights[i] = weights[i]
		}
	}

	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}
	m.baseMargin, m.link = objectiveLink(l.Objective.Name, baseScore)

	sum := sha256.Sum256(data)
	m.info = Info{
		Kind:         KindXGBoostJSON,
		Version:      xgbVersion(doc.Version) + "-" + hex.EncodeToString(sum[:6]),
		Objective:    l.Objective.Name,
		FeatureNames: l.FeatureNames,
		NumFeatures:  numFeatures,
		NumTrees:     len(m.trees),
	}
	return m, nil
}

func decodeTree(t xgbTree, numFeatures int) (tree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("%w: empty tree", ErrUnsupportedModel)
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return tree{}, fmt.Errorf("%w: inconsistent node arrays", ErrUnsupportedModel)
	}

	defaultLeft := []bool(t.DefaultLeft)
	if len(defaultLeft) == 0 {
		defaultLeft = make([]bool, n)
	}
	if len(defaultLeft) != n {
		return tree{}, fmt.Errorf("%w: default_left has %d entries for %d nodes", ErrUnsupportedModel, len(defaultLeft), n)
	}

	for i := range n {
		if i < len(t.SplitType) && t.SplitType[i] != 0 {
			return tree{}, fmt.Errorf("%w: categorical split at node %d", ErrUnsupportedModel, i)
		}
		if t.LeftChildren[i] == -1 {
			continue
		}
		if t.LeftChildren[i] <= i || t.LeftChildren[i] >= n || t.RightChildren[i] <= i || t.RightChildren[i] >= n {
			return tree{}, fmt.Errorf("%w: bad children at node %d", ErrUnsupportedModel, i)
		}
		if t.SplitIndices[i] < 0 || t.SplitIndices[i] >= numFeatures {
			return tree{}, fmt.Errorf("%w: split on feature %d at node %d", ErrUnsupportedModel, t.SplitIndices[i], i)
		}
	}

	return tree{
		left:        t.LeftChildren,
		right:       t.RightChildren,
		index:       t.SplitIndices,
		cond:        t.SplitConditions,
		defaultLeft: defaultLeft,
	}, nil
}

// leaf walks the tree for x. Splits compare in float32 like XGBoost does, and
// missing (NaN) values follow default_left.
func (t *tree) leaf(x []float64) float64 {
	i := 0
	for t.left[i] != -1 {
		v := x[t.index[i]]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[i] {
				i = t.left[i]
			} else {
				i = t.right[i]
			}
		case float32(v) < t.cond[i]:
			i = t.left[i]
		default:
			i = t.right[i]
		}
	}
	return float64(t.cond[i])
}

// Predict returns the model output for features.
func (m *XGBoost) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(features) != m.info.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrShapeMismatch, len(features), m.info.NumFeatures)
	}

	margin := m.baseMargin
	for i := range m.trees {
		margin += m.weights[i] * m.trees[i].leaf(features)
	}
	return m.link(margin), nil
}

// Info describes the loaded model.
func (m *XGBoost) Info() Info {
	return m.info
}

// objectiveLink returns the base margin and the output transform for an objective.
func objectiveLink(objective string, baseScore float64) (float64, func(float64) float64) {
	identity := func(x float64) float64 { return x }

	switch objective {
	case "reg:logistic", "binary:logistic":
		return logit(baseScore), sigmoid
	case "binary:logitraw":
		return logit(baseScore), identity
	case "count:poisson", "reg:gamma", "reg:tweedie":
		return math.Log(baseScore), math.Exp
	default:
		return baseScore, identity
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	const eps = 1e-16
	p = min(max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}

// parseBaseScore accepts "5E-1" and the bracketed "[5E-1]" written by XGBoost 3.
func parseBaseScore(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0.5, nil
	}
	first, _, _ := strings.Cut(s, ",")
	v, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, fmt.Errorf("parse base_score %q: %w", s, err)
	}
	return v, nil
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}

func xgbVersion(v []int) string {
	if len(v) == 0 {
		return "xgboost"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return "xgboost-" + strings.Join(parts, ".")
}
