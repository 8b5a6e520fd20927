// Package match selects, for each query feature vector, the most similar
// frame from a collection of analyzed source frames. Similarity is plain
// Euclidean distance over the selected feature columns; no scaling or
// normalization is applied, so wide-range features such as the spectral
// centroid dominate narrow-range ones.
package match

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/logging"
)

// SelectionMode determines how the final frame is chosen from the
// distance ranking
type SelectionMode string

const (
	// SelectBest always picks the closest candidate
	SelectBest SelectionMode = "best"

	// SelectRandomTopK picks uniformly at random among the K closest
	// candidates, trading fidelity for variety
	SelectRandomTopK SelectionMode = "random"
)

// Policy configures frame selection for a matching run
type Policy struct {
	Mode SelectionMode `json:"mode"`
	K    int           `json:"k"`

	// Rand is the randomness source for SelectRandomTopK. Nil means the
	// shared global source; tests inject a seeded one.
	Rand *rand.Rand `json:"-"`
}

// DefaultPolicy returns a policy that picks the single closest frame
func DefaultPolicy() Policy {
	return Policy{Mode: SelectBest, K: 1}
}

// RandomTopKPolicy returns a policy that picks randomly among the k
// closest frames
func RandomTopKPolicy(k int, rng *rand.Rand) Policy {
	return Policy{Mode: SelectRandomTopK, K: k, Rand: rng}
}

// Candidate is one entry of the distance ranking for a query
type Candidate struct {
	Row      feature.Row
	Distance float64
}

// Decision is the outcome of a single match query
type Decision struct {
	Chosen   feature.Row
	Distance float64
	Ranked   []Candidate
}

// Matcher answers nearest-neighbor queries against a source feature
// table. The candidate matrix is projected once at construction; queries
// only pay for distance computation and ranking.
type Matcher struct {
	table      *feature.Table
	features   []string
	candidates [][]float64
	logger     logging.Logger
}

// NewMatcher builds a matcher over the given table, comparing only the
// named feature columns. The feature selection must be non-empty and
// every name must exist in the table schema.
func NewMatcher(table *feature.Table, features []string) (*Matcher, error) {
	if len(features) == 0 {
		return nil, &InvalidQueryError{Reason: "no features selected"}
	}

	candidates := make([][]float64, table.Len())
	for i, row := range table.Rows() {
		projected, err := table.Project(row.Vector, features)
		if err != nil {
			return nil, &InvalidQueryError{Reason: "bad feature selection", Err: err}
		}
		candidates[i] = projected
	}

	return &Matcher{
		table:      table,
		features:   append([]string{}, features...),
		candidates: candidates,
		logger: logging.WithFields(logging.Fields{
			"component": "matcher",
		}),
	}, nil
}

// Len returns the number of candidate frames
func (m *Matcher) Len() int {
	return m.table.Len()
}

// Match ranks every candidate frame by Euclidean distance to the query
// and applies the policy to pick one. Ties keep table insertion order, so
// identical queries always produce identical rankings. The returned
// ranking holds the K closest candidates (at least one).
func (m *Matcher) Match(query feature.Vector, policy Policy) (*Decision, error) {
	q, err := m.table.Project(query, m.features)
	if err != nil {
		return nil, &InvalidQueryError{Reason: "bad query vector", Err: err}
	}

	n := len(m.candidates)
	if n == 0 {
		return nil, &InvalidQueryError{Reason: "empty collection"}
	}

	k := policy.K
	if policy.Mode == SelectBest && k <= 0 {
		k = 1
	}
	if k <= 0 || k > n {
		return nil, &InvalidQueryError{
			Reason: "candidate count out of range",
		}
	}

	order := make([]int, n)
	dists := make([]float64, n)
	for i, c := range m.candidates {
		order[i] = i
		dists[i] = floats.Distance(q, c, 2)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	ranked := make([]Candidate, k)
	for i := 0; i < k; i++ {
		ranked[i] = Candidate{
			Row:      m.table.Rows()[order[i]],
			Distance: dists[order[i]],
		}
	}

	pick := 0
	if policy.Mode == SelectRandomTopK {
		if rng := policy.Rand; rng != nil {
			pick = rng.Intn(k)
		} else {
			pick = rand.Intn(k)
		}
	}

	return &Decision{
		Chosen:   ranked[pick].Row,
		Distance: ranked[pick].Distance,
		Ranked:   ranked,
	}, nil
}
