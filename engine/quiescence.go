package engine

import "chess-search/position"

// Quiescence pruning, enabled by Options.DeltaPruning: a capture that
// cannot lift the stand pat score to alpha even with DeltaMargin is skipped,
// and so is one that loses more than QuiescenceSeeMargin in the exchange.
const (
	DeltaMargin         int32 = 200
	QuiescenceSeeMargin int32 = 100
)

// quiescence resolves captures and promotions below the horizon so the
// static evaluation is only taken in quiet positions. In check every evasion
// is searched and having none is mate.
func (s *Searcher) quiescence(alpha, beta int32, ply, qply int) int32 {
	if s.poll() {
		return 0
	}
	s.selDepth = Max(s.selDepth, ply)

	inCheck := s.pos.InCheck()
	if ply >= MaxPly-1 || qply >= s.opts.QuiescenceMaxPly {
		return s.evaluate()
	}

	var standpat int32
	var bestScore int32
	var moveList moveList

	// Generate moves: all moves when in check, only captures otherwise
	if inCheck {
		moves := s.pos.LegalMoves()
		if len(moves) == 0 {
			return MatedIn(ply)
		}
		bestScore = -MaxScore // Must escape check
		moveList = s.scoreMovesList(moves, ply, position.NoMove, position.NoMove)
	} else {
		standpat = s.evaluate()
		// Stand-pat pruning (not when in check)
		if standpat >= beta {
			s.stats.QStandPatCutoffs++
			return standpat
		}
		if standpat > alpha {
			alpha = standpat
		}
		bestScore = standpat
		moveList = s.scoreMovesListCaptures(s.pos.LegalMoves())
	}

	for index := range moveList.moves {
		orderNextMove(index, &moveList)
		move := moveList.moves[index].move

		if !inCheck && s.opts.DeltaPruning {
			// Delta pruning: estimate maximum gain from this capture
			moveGain := SeePieceValue[s.pos.CapturedPiece(move)]
			if promote := move.Promote(); promote != position.NoPiece {
				moveGain += SeePieceValue[promote] - SeePieceValue[position.Pawn]
			}
			if standpat+moveGain+DeltaMargin < alpha {
				s.stats.DeltaPrunes++
				continue
			}
			if see(s.pos, move) < -QuiescenceSeeMargin {
				s.stats.SeePrunes++
				continue
			}
		}

		s.pos.MakeMove(move)
		score := -s.quiescence(-beta, -alpha, ply+1, qply+1)
		s.pos.UnmakeMove()

		if s.stopped {
			return bestScore
		}
		if score > bestScore {
			bestScore = score
		}
		if score >= beta {
			s.stats.QBetaCutoffs++
			return score // Return score, not beta (more accurate)
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestScore
}
