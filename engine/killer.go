package engine

import "chess-search/position"

// KillerStruct keeps two quiet moves per ply that recently caused a beta
// cutoff.
type KillerStruct struct {
	KillerMoves [MaxPly + 1][2]position.Move
}

func (k *KillerStruct) InsertKiller(move position.Move, ply int) {
	if move != k.KillerMoves[ply][0] {
		k.KillerMoves[ply][1] = k.KillerMoves[ply][0]
		k.KillerMoves[ply][0] = move
	}
}

// IsKiller returns the slot holding move at ply, or -1.
func (k *KillerStruct) IsKiller(move position.Move, ply int) int {
	switch move {
	case position.NoMove:
		return -1
	case k.KillerMoves[ply][0]:
		return 0
	case k.KillerMoves[ply][1]:
		return 1
	}
	return -1
}

// Clear the killer moves table.
func (k *KillerStruct) ClearKillers() {
	for ply := range k.KillerMoves {
		k.KillerMoves[ply][0] = position.NoMove
		k.KillerMoves[ply][1] = position.NoMove
	}
}
