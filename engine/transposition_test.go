package engine

import (
	"testing"

	"chess-search/position"
)

func startMove(t *testing.T, uci string) position.Move {
	t.Helper()
	return mustMove(t, position.StartPosition(), uci)
}

func TestTransTableExactRoundTrip(t *testing.T) {
	tt := NewTransTable(1)
	m := startMove(t, "e2e4")
	const hash = 0xDEADBEEFCAFE

	tt.Store(hash, 6, 0, m, 42, ExactFlag)
	entry, found := tt.Probe(hash)
	if !found {
		t.Fatalf("stored entry not found")
	}
	if entry.Move != m || entry.Depth != 6 || entry.Flag != ExactFlag {
		t.Fatalf("unexpected entry %+v", entry)
	}
	usable, score := tt.useEntry(entry, 6, -100, 100, 0)
	if !usable || score != 42 {
		t.Fatalf("useEntry = %v, %d; want true, 42", usable, score)
	}
	if usable, _ := tt.useEntry(entry, 7, -100, 100, 0); usable {
		t.Fatalf("entry must not settle a deeper search")
	}
	if _, found := tt.Probe(hash ^ 1<<40); found {
		t.Fatalf("probe with a different key must miss")
	}
}

func TestTransTableBounds(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(1, 4, 0, position.NoMove, 50, AlphaFlag)
	tt.Store(2, 4, 0, position.NoMove, 50, BetaFlag)

	upper, _ := tt.Probe(1)
	lower, _ := tt.Probe(2)
	tests := []struct {
		name        string
		entry       TTEntry
		alpha, beta int32
		want        bool
	}{
		{"upper bound below alpha", upper, 60, 100, true},
		{"upper bound above alpha", upper, 40, 100, false},
		{"lower bound above beta", lower, -100, 40, true},
		{"lower bound below beta", lower, -100, 60, false},
	}
	for _, tc := range tests {
		if usable, _ := tt.useEntry(tc.entry, 4, tc.alpha, tc.beta, 0); usable != tc.want {
			t.Fatalf("%s: usable = %v", tc.name, usable)
		}
	}
}

func TestTransTableMateScoresAreNodeRelative(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(7, 3, 4, position.NoMove, MateIn(7), ExactFlag)
	entry, _ := tt.Probe(7)
	if _, score := tt.useEntry(entry, 3, -MaxScore, MaxScore, 2); score != MateIn(5) {
		t.Fatalf("mate score read at ply 2 = %d, want %d", score, MateIn(5))
	}
}

func TestTransTableKeepsMoveOnEmptyUpdate(t *testing.T) {
	tt := NewTransTable(1)
	m := startMove(t, "g1f3")
	tt.Store(9, 2, 0, m, 10, BetaFlag)
	tt.Store(9, 3, 0, position.NoMove, -10, AlphaFlag)
	entry, _ := tt.Probe(9)
	if entry.Move != m {
		t.Fatalf("move lost on update without a move")
	}
	if entry.Depth != 3 || entry.Flag != AlphaFlag {
		t.Fatalf("entry not updated: %+v", entry)
	}
}

func TestTransTableShallowBoundDoesNotOverwrite(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(9, 8, 0, position.NoMove, 10, ExactFlag)
	tt.Store(9, 2, 0, position.NoMove, 99, BetaFlag)
	entry, _ := tt.Probe(9)
	if entry.Depth != 8 || entry.Score != 10 {
		t.Fatalf("deep entry overwritten by shallow bound: %+v", entry)
	}

	// From an older search the shallow result wins.
	tt.NewSearch()
	tt.Store(9, 2, 0, position.NoMove, 99, BetaFlag)
	entry, _ = tt.Probe(9)
	if entry.Depth != 2 || entry.Score != 99 {
		t.Fatalf("stale entry kept: %+v", entry)
	}
}

func TestTransTableReplacement(t *testing.T) {
	tt := NewTransTable(1)
	clusters := tt.mask + 1
	// Five keys in the same cluster; the first four fill it.
	keys := []uint64{5, 5 + clusters, 5 + 2*clusters, 5 + 3*clusters, 5 + 4*clusters}
	depths := []int8{9, 1, 7, 8}
	for i, d := range depths {
		tt.Store(keys[i], d, 0, position.NoMove, int32(i), ExactFlag)
	}
	tt.Store(keys[4], 5, 0, position.NoMove, 4, ExactFlag)

	if _, found := tt.Probe(keys[1]); found {
		t.Fatalf("shallowest entry should have been evicted")
	}
	for _, i := range []int{0, 2, 3, 4} {
		if _, found := tt.Probe(keys[i]); !found {
			t.Fatalf("entry %d evicted", i)
		}
	}

	// Aging makes an old deep entry the victim.
	for i := 0; i < 3; i++ {
		tt.NewSearch()
	}
	tt.Probe(keys[2])
	tt.Probe(keys[3])
	tt.Probe(keys[4])
	tt.Store(keys[1], 1, 0, position.NoMove, 1, ExactFlag)
	if _, found := tt.Probe(keys[0]); found {
		t.Fatalf("stale deep entry should have been evicted")
	}
}

func TestTransTableClear(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(3, 1, 0, position.NoMove, 0, ExactFlag)
	tt.Clear()
	if _, found := tt.Probe(3); found {
		t.Fatalf("entry survived Clear")
	}
	if tt.Hashfull() != 0 {
		t.Fatalf("hashfull = %d after Clear", tt.Hashfull())
	}
}

func TestTransTableSizeIsPowerOfTwo(t *testing.T) {
	for _, mb := range []int{1, 3, 16, 100} {
		tt := NewTransTable(mb)
		clusters := uint64(tt.Len() / clusterSize)
		if clusters&(clusters-1) != 0 {
			t.Fatalf("%d MB gives %d clusters", mb, clusters)
		}
		if tt.Megabytes() != mb {
			t.Fatalf("Megabytes() = %d, want %d", tt.Megabytes(), mb)
		}
	}
}

func TestTransTableStats(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(11, 1, 0, position.NoMove, 0, ExactFlag)
	tt.Probe(11)
	tt.Probe(12)
	stats := tt.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Stores != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
