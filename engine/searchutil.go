package engine

import (
	"strings"

	"github.com/samber/lo"

	"chess-search/position"
)

// PVLine is the principal variation below a node.
type PVLine struct {
	Moves []position.Move
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update makes move followed by the child's line the new variation.
func (pv *PVLine) Update(move position.Move, child PVLine) {
	pv.Clear()
	pv.Moves = append(pv.Moves, move)
	pv.Moves = append(pv.Moves, child.Moves...)
}

func (pv PVLine) Clone() PVLine {
	return PVLine{Moves: append([]position.Move(nil), pv.Moves...)}
}

func (pv PVLine) GetPVMove() position.Move {
	if len(pv.Moves) == 0 {
		return position.NoMove
	}
	return pv.Moves[0]
}

func (pv PVLine) String() string {
	return MovesString(pv.Moves)
}

// MovesString joins moves in UCI notation.
func MovesString(moves []position.Move) string {
	return strings.Join(lo.Map(moves, func(m position.Move, _ int) string {
		return m.String()
	}), " ")
}

// computeLMRReduction returns how many plies to take off a late quiet move.
// The reduced search never drops below depth 1.
func computeLMRReduction(depth int8, movesSearched int) int8 {
	d := Clamp(int(depth), 0, len(LMR)-1)
	m := Clamp(movesSearched, 0, len(LMR[d])-1)
	return LMR[d][m]
}
