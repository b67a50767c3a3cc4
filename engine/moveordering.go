package engine

import "chess-search/position"

type move struct {
	move  position.Move
	score int32
}

type moveList struct {
	moves []move
}

// Most Valuable Victim - Least Valuable Aggressor; used to score & sort captures
var mvvLva = [7][7]int32{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 15, 14, 13, 12, 11, 10}, // victim Pawn
	{0, 25, 24, 23, 22, 21, 20}, // victim Knight
	{0, 35, 34, 33, 32, 31, 30}, // victim Bishop
	{0, 45, 44, 43, 42, 41, 40}, // victim Rook
	{0, 55, 54, 53, 52, 51, 50}, // victim Queen
	{0, 0, 0, 0, 0, 0, 0},       // victim King
}

/*
	Move ordering offsets
	- The hash/PV move goes first: it is the best move of a previous search of this node.
	- Captures and queen promotions next, by MVV-LVA.
	- Killers, then the counter move, then plain history for the remaining quiets.
*/
const (
	pvOffset       int32 = 1_000_000
	captureOffset  int32 = 500_000
	promotionBonus int32 = 60
	killerOffset   int32 = 200_000
	counterOffset  int32 = 100_000
)

// Ordering the moves one at a time, at index given
func orderNextMove(currIndex int, moves *moveList) {
	bestIndex := currIndex
	bestScore := moves.moves[bestIndex].score

	for index := bestIndex + 1; index < len(moves.moves); index++ {
		if moves.moves[index].score > bestScore {
			bestIndex = index
			bestScore = moves.moves[index].score
		}
	}
	moves.moves[currIndex], moves.moves[bestIndex] = moves.moves[bestIndex], moves.moves[currIndex]
}

func (s *Searcher) tacticalScore(m position.Move) (score int32, tactical bool) {
	victim := s.pos.CapturedPiece(m)
	promote := m.Promote()
	if victim == position.NoPiece && promote != position.Queen {
		return 0, false
	}
	score = captureOffset
	if victim != position.NoPiece {
		score += mvvLva[victim][s.pos.MovingPiece(m)]
	}
	if promote == position.Queen {
		score += promotionBonus
	}
	return score, true
}

// scoreMovesList ranks every legal move; nothing is dropped.
func (s *Searcher) scoreMovesList(moves []position.Move, ply int, pvMove, prevMove position.Move) (movesList moveList) {
	side := s.pos.SideToMove()
	counter := s.history.Counter(side, prevMove)

	movesList.moves = make([]move, len(moves))
	for i := range moves {
		m := moves[i]
		var moveEval int32
		if m == pvMove {
			moveEval = pvOffset
		} else if score, tactical := s.tacticalScore(m); tactical {
			moveEval = score
		} else if slot := s.killers.IsKiller(m, ply); slot >= 0 {
			moveEval = killerOffset + int32(1-slot)*1000
		} else if m == counter {
			moveEval = counterOffset
		} else {
			moveEval = s.history.Score(side, m)
		}
		movesList.moves[i] = move{move: m, score: moveEval}
	}
	return movesList
}

// scoreMovesListCaptures keeps only captures and promotions, for quiescence.
func (s *Searcher) scoreMovesListCaptures(moves []position.Move) (movesList moveList) {
	movesList.moves = make([]move, 0, len(moves))
	for i := range moves {
		m := moves[i]
		if s.pos.CapturedPiece(m) == position.NoPiece && m.Promote() == position.NoPiece {
			continue
		}
		score, _ := s.tacticalScore(m)
		movesList.moves = append(movesList.moves, move{move: m, score: score})
	}
	return movesList
}
