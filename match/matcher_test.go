package match

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-mosaic/feature"
	"github.com/RyanBlaney/sonido-mosaic/frame"
)

// sourceTable builds a table whose rows have the given loudness values and
// zeros everywhere else, so distances along loudness are easy to reason
// about.
func sourceTable(t *testing.T, loudness ...float64) *feature.Table {
	t.Helper()
	table := feature.NewTable()
	for i, l := range loudness {
		v := make(feature.Vector, len(feature.Schema()))
		v[0] = l
		f := frame.Frame{
			CollectionID: "src",
			Index:        i,
			Path:         "files/src.ogg",
			StartSample:  i * 8192,
			EndSample:    (i + 1) * 8192,
		}
		if err := table.AddRow(f, v); err != nil {
			t.Fatalf("AddRow: %v", err)
		}
	}
	return table
}

func query(loudness float64) feature.Vector {
	v := make(feature.Vector, len(feature.Schema()))
	v[0] = loudness
	return v
}

func TestMatchBest(t *testing.T) {
	table := sourceTable(t, 10, 3, 7)
	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	decision, err := m.Match(query(6.5), DefaultPolicy())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if decision.Chosen.Frame.Index != 2 {
		t.Errorf("chosen frame index = %d, want 2 (loudness 7)", decision.Chosen.Frame.Index)
	}
	if decision.Distance != 0.5 {
		t.Errorf("distance = %v, want 0.5", decision.Distance)
	}

	// Repeats are identical
	again, err := m.Match(query(6.5), DefaultPolicy())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if again.Chosen.Frame.Index != decision.Chosen.Frame.Index {
		t.Error("best policy not deterministic")
	}
}

func TestMatchTieKeepsInsertionOrder(t *testing.T) {
	// Two rows equidistant from the query: the earlier row wins
	table := sourceTable(t, 4, 8, 4)
	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	decision, err := m.Match(query(4), Policy{Mode: SelectBest, K: 3})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if decision.Chosen.Frame.Index != 0 {
		t.Errorf("tie broken to index %d, want 0", decision.Chosen.Frame.Index)
	}
	if decision.Ranked[0].Row.Frame.Index != 0 || decision.Ranked[1].Row.Frame.Index != 2 {
		t.Errorf("tied rows out of insertion order: %d, %d",
			decision.Ranked[0].Row.Frame.Index, decision.Ranked[1].Row.Frame.Index)
	}
}

func TestMatchRanking(t *testing.T) {
	table := sourceTable(t, 1, 5, 3, 9)
	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	decision, err := m.Match(query(0), Policy{Mode: SelectBest, K: 4})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	wantOrder := []int{0, 2, 1, 3}
	for i, want := range wantOrder {
		if got := decision.Ranked[i].Row.Frame.Index; got != want {
			t.Errorf("rank %d is frame %d, want %d", i, got, want)
		}
	}
	for i := 1; i < len(decision.Ranked); i++ {
		if decision.Ranked[i].Distance < decision.Ranked[i-1].Distance {
			t.Error("ranking not ascending by distance")
		}
	}
}

func TestMatchRandomTopK(t *testing.T) {
	table := sourceTable(t, 1, 2, 3, 100, 200)
	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	policy := RandomTopKPolicy(3, rng)

	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		decision, err := m.Match(query(0), policy)
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		idx := decision.Chosen.Frame.Index
		if idx > 2 {
			t.Fatalf("random policy chose frame %d outside the top 3", idx)
		}
		seen[idx] = true
	}
	if len(seen) < 2 {
		t.Error("random policy never varied its choice over 50 draws")
	}
}

func TestMatchSingleRow(t *testing.T) {
	table := sourceTable(t, 5)
	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	decision, err := m.Match(query(-100), DefaultPolicy())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if decision.Chosen.Frame.Index != 0 {
		t.Errorf("single-row table chose frame %d", decision.Chosen.Frame.Index)
	}
}

func TestMatchInvalidQueries(t *testing.T) {
	table := sourceTable(t, 1, 2)

	if _, err := NewMatcher(table, nil); err == nil {
		t.Error("expected error for empty feature selection")
	} else {
		var iq *InvalidQueryError
		if !errors.As(err, &iq) {
			t.Errorf("got %T, want *InvalidQueryError", err)
		}
	}

	if _, err := NewMatcher(table, []string{"tempo"}); err == nil {
		t.Error("expected error for unknown feature")
	}

	m, err := NewMatcher(table, []string{feature.NameLoudness})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	if _, err := m.Match(query(0), RandomTopKPolicy(3, nil)); err == nil {
		t.Error("expected error for k above row count")
	}
	if _, err := m.Match(query(0), RandomTopKPolicy(0, nil)); err == nil {
		t.Error("expected error for k of zero")
	}
	if _, err := m.Match(feature.Vector{1}, DefaultPolicy()); err == nil {
		t.Error("expected error for schema-mismatched query")
	}
}
