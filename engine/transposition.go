package engine

import (
	"math/bits"
	"unsafe"

	"chess-search/position"
)

const (
	// Flags. The zero value marks an empty slot.
	AlphaFlag uint8 = iota + 1 // upper bound
	BetaFlag                   // lower bound
	ExactFlag

	clusterSize = 4
	agePenalty  = 4
)

type TTEntry struct {
	Hash  uint64
	Move  position.Move
	Score int16
	Depth int8
	Flag  uint8
	Gen   uint8
}

func (e *TTEntry) empty() bool {
	return e.Flag == 0
}

// TransTable is a hash table of search results grouped in clusters of four
// entries. It is owned by one searcher and not safe for concurrent use.
type TransTable struct {
	entries    []TTEntry
	mask       uint64
	megabytes  int
	generation uint8

	hits, misses, stores uint64
}

func NewTransTable(megabytes int) *TransTable {
	tt := &TransTable{}
	tt.Resize(megabytes)
	return tt
}

// Resize reallocates the table, dropping all entries. The cluster count is
// the largest power of two that fits into megabytes.
func (tt *TransTable) Resize(megabytes int) {
	megabytes = Max(megabytes, 1)
	entrySize := uint64(unsafe.Sizeof(TTEntry{}))
	clusterBytes := entrySize * clusterSize
	clusterCount := uint64(megabytes) * 1024 * 1024 / clusterBytes
	if clusterCount == 0 {
		clusterCount = 1
	}
	clusterCount = 1 << (bits.Len64(clusterCount) - 1)

	tt.entries = make([]TTEntry, clusterCount*clusterSize)
	tt.mask = clusterCount - 1
	tt.megabytes = megabytes
	tt.generation = 0
	tt.hits, tt.misses, tt.stores = 0, 0, 0
}

// Clear empties every slot and restarts aging.
func (tt *TransTable) Clear() {
	clear(tt.entries)
	tt.generation = 0
	tt.hits, tt.misses, tt.stores = 0, 0, 0
}

// NewSearch ages the table: entries from earlier searches become preferred
// replacement victims.
func (tt *TransTable) NewSearch() {
	tt.generation++
}

func (tt *TransTable) Megabytes() int {
	return tt.megabytes
}

func (tt *TransTable) Len() int {
	return len(tt.entries)
}

func (tt *TransTable) cluster(hash uint64) []TTEntry {
	base := int(hash&tt.mask) * clusterSize
	return tt.entries[base : base+clusterSize]
}

// Probe looks hash up. A hit refreshes the entry's generation.
func (tt *TransTable) Probe(hash uint64) (TTEntry, bool) {
	cluster := tt.cluster(hash)
	for i := range cluster {
		entry := &cluster[i]
		if !entry.empty() && entry.Hash == hash {
			entry.Gen = tt.generation
			tt.hits++
			return *entry, true
		}
	}
	tt.misses++
	return TTEntry{}, false
}

// useEntry decides whether a probed entry settles the node. Bounds are only
// usable on the side they bound.
func (tt *TransTable) useEntry(entry TTEntry, depth int8, alpha, beta int32, ply int) (usable bool, score int32) {
	score = scoreFromTT(int32(entry.Score), ply)
	if entry.Depth < depth {
		return false, score
	}
	switch entry.Flag {
	case ExactFlag:
		return true, score
	case AlphaFlag:
		return score <= alpha, score
	case BetaFlag:
		return score >= beta, score
	}
	return false, score
}

// Store records a search result. Mate scores are made relative to the node
// before they are written.
func (tt *TransTable) Store(hash uint64, depth int8, ply int, move position.Move, score int32, flag uint8) {
	cluster := tt.cluster(hash)
	var target *TTEntry

	// Prefer updating existing entry
	for i := range cluster {
		if !cluster[i].empty() && cluster[i].Hash == hash {
			target = &cluster[i]
			break
		}
	}
	if target != nil {
		if move == position.NoMove {
			move = target.Move
		}
		if depth < target.Depth && flag != ExactFlag && target.Gen == tt.generation {
			target.Move = move
			return
		}
	}

	// Next look for an empty slot
	if target == nil {
		for i := range cluster {
			if cluster[i].empty() {
				target = &cluster[i]
				break
			}
		}
	}

	// Otherwise evict the stalest, shallowest entry
	if target == nil {
		target = &cluster[0]
		worst := tt.replaceScore(target)
		for i := 1; i < len(cluster); i++ {
			if s := tt.replaceScore(&cluster[i]); s < worst {
				worst = s
				target = &cluster[i]
			}
		}
	}

	*target = TTEntry{
		Hash:  hash,
		Move:  move,
		Score: int16(scoreToTT(score, ply)),
		Depth: depth,
		Flag:  flag,
		Gen:   tt.generation,
	}
	tt.stores++
}

func (tt *TransTable) replaceScore(entry *TTEntry) int {
	age := int(tt.generation - entry.Gen)
	return int(entry.Depth) - agePenalty*age
}

// Hashfull estimates the permille of slots written during the current
// search.
func (tt *TransTable) Hashfull() int {
	sample := Min(len(tt.entries), 1000)
	used := 0
	for i := 0; i < sample; i++ {
		if !tt.entries[i].empty() && tt.entries[i].Gen == tt.generation {
			used++
		}
	}
	return used * 1000 / sample
}

// TTStats are lifetime counters since the last Clear or Resize.
type TTStats struct {
	Hits, Misses, Stores uint64
}

func (tt *TransTable) Stats() TTStats {
	return TTStats{Hits: tt.hits, Misses: tt.misses, Stores: tt.stores}
}
