package engine

import "chess-search/position"

/*
	HISTORY/COUNTER MOVES
	If a move was a cut-node (above beta), and not a capture, we keep track of two things:
	The move that countered the previous move - a counter move
	A historical score of the move, so quiet moves that worked before are tried early
*/

// Ensure we stay below the counter, killer and capture offsets
const historyMaxVal int32 = 10000

type HistoryTable struct {
	scores  [2][64][64]int32
	counter [2][64][64]position.Move
}

// Increment rewards a quiet move that caused a beta cutoff.
func (h *HistoryTable) Increment(side position.Color, move position.Move, depth int8) {
	from, to := move.From(), move.To()
	h.scores[side][from][to] += int32(depth) * int32(depth)
	if h.scores[side][from][to] >= historyMaxVal {
		h.age(side)
	}
}

// Decrement punishes a quiet move that was searched before the cutoff move.
func (h *HistoryTable) Decrement(side position.Color, move position.Move, depth int8) {
	from, to := move.From(), move.To()
	h.scores[side][from][to] -= int32(depth) * int32(depth)
	if h.scores[side][from][to] <= -historyMaxVal {
		h.age(side)
	}
}

func (h *HistoryTable) Score(side position.Color, move position.Move) int32 {
	return h.scores[side][move.From()][move.To()]
}

// Age the values in the history table by halving them.
func (h *HistoryTable) age(side position.Color) {
	for sq1 := 0; sq1 < 64; sq1++ {
		for sq2 := 0; sq2 < 64; sq2++ {
			h.scores[side][sq1][sq2] /= 2
		}
	}
}

func (h *HistoryTable) StoreCounter(side position.Color, prevMove, move position.Move) {
	if prevMove == position.NoMove {
		return
	}
	h.counter[side][prevMove.From()][prevMove.To()] = move
}

func (h *HistoryTable) Counter(side position.Color, prevMove position.Move) position.Move {
	if prevMove == position.NoMove {
		return position.NoMove
	}
	return h.counter[side][prevMove.From()][prevMove.To()]
}

// Clear the values in the history and counter tables.
func (h *HistoryTable) Clear() {
	*h = HistoryTable{}
}
