package engine

import (
	"math"

	"chess-search/position"
)

// Evaluator scores a position in centipawns from White's point of view.
type Evaluator interface {
	Evaluate(p *position.Position) int32
}

// Searcher runs one search at a time over a position it does not own. The
// transposition table, killers and history persist between searches of the
// same game.
type Searcher struct {
	pos     *position.Position
	tt      *TransTable
	eval    Evaluator
	opts    Options
	timer   *TimeHandler
	killers KillerStruct
	history HistoryTable
	stats   CutStatistics

	nodes     uint64
	selDepth  int
	stopped   bool
	rootIndex int
	rootSide  position.Color
	// searchMoves, when set, limits the moves tried at the root.
	searchMoves []position.Move
}

func NewSearcher(tt *TransTable, evaluator Evaluator, opts Options) *Searcher {
	return &Searcher{tt: tt, eval: evaluator, opts: opts}
}

// SetOptions replaces the options used by the next search.
func (s *Searcher) SetOptions(opts Options) {
	s.opts = opts
}

func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

func (s *Searcher) Stats() CutStatistics {
	return s.stats
}

// ClearHeuristics forgets killers, history and counter moves.
func (s *Searcher) ClearHeuristics() {
	s.killers.ClearKillers()
	s.history.Clear()
}

// prepare binds the searcher to pos for one search.
func (s *Searcher) prepare(pos *position.Position, timer *TimeHandler) {
	s.pos = pos
	s.timer = timer
	s.nodes = 0
	s.selDepth = 0
	s.stopped = false
	s.rootIndex = pos.Ply()
	s.rootSide = pos.SideToMove()
	s.stats = CutStatistics{}
	s.searchMoves = nil
	s.killers.ClearKillers()
}

// poll counts a node and checks the stop conditions every PollInterval
// nodes.
func (s *Searcher) poll() bool {
	s.nodes++
	if s.nodes%s.opts.PollInterval == 0 && s.timer.ShouldStop(s.nodes) {
		s.stopped = true
	}
	return s.stopped
}

// evaluate returns the clamped static score from the side to move.
func (s *Searcher) evaluate() int32 {
	score := s.eval.Evaluate(s.pos)
	if s.pos.SideToMove() == position.Black {
		score = -score
	}
	return ClampEval(score)
}

// drawScore applies contempt from the root side's point of view: a positive
// contempt makes the engine avoid draws.
func (s *Searcher) drawScore() int32 {
	if s.pos.SideToMove() == s.rootSide {
		return DrawScore - s.opts.Contempt
	}
	return DrawScore + s.opts.Contempt
}

// isDraw covers the fifty-move rule, dead positions and repetitions. A
// checkmate delivered on the hundredth halfmove still counts as mate, so
// callers check for mate first when the clock ran out.
func (s *Searcher) isDraw() bool {
	if s.pos.FiftyMoveCounter() >= position.FiftyMoveLimit {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	return s.pos.IsRepetitionDraw(s.rootIndex)
}

func (s *Searcher) alphabeta(alpha, beta int32, depth int8, ply int, pvLine *PVLine, prevMove position.Move, didNull bool) int32 {
	pvLine.Clear()
	if s.poll() {
		return 0
	}

	isRoot := ply == 0
	isPVNode := beta-alpha > 1
	s.selDepth = Max(s.selDepth, ply)

	if !isRoot {
		if s.isDraw() {
			if s.pos.FiftyMoveCounter() >= position.FiftyMoveLimit && s.pos.IsCheckmate() {
				return MatedIn(ply)
			}
			return s.drawScore()
		}
		if ply >= MaxPly-1 {
			return s.evaluate()
		}
	}

	inCheck := s.pos.InCheck()
	if inCheck && s.opts.CheckExtension && ply < MaxPly/2 && depth < math.MaxInt8 {
		depth++
	}

	moves := s.pos.LegalMoves()
	if isRoot && s.searchMoves != nil {
		moves = filterMoves(moves, s.searchMoves)
	}
	if len(moves) == 0 {
		if inCheck {
			return MatedIn(ply)
		}
		return s.drawScore()
	}

	if depth <= 0 {
		return s.quiescence(alpha, beta, ply, 0)
	}

	hash := s.pos.Fingerprint()
	var ttMove position.Move
	if s.opts.UseTT {
		if entry, found := s.tt.Probe(hash); found {
			ttMove = entry.Move
			if usable, ttScore := s.tt.useEntry(entry, depth, alpha, beta, ply); usable && !isRoot && !isPVNode {
				s.stats.TTCutoffs++
				return ttScore
			}
		}
	}

	/*
		NULL MOVE PRUNING
		Hand the opponent a free move. If a reduced search still fails high we
		are far enough ahead to cut. Zugzwang makes this unsound with pawns only.
	*/
	if s.opts.NullMove && !isRoot && !isPVNode && !inCheck && !didNull &&
		depth >= s.opts.NullMoveMinDepth && s.pos.HasNonPawnMaterial() && Abs(beta) < Checkmate {
		reduction := Min(3+depth/4, depth-1)
		var nullPV PVLine
		s.pos.MakeNullMove()
		score := -s.alphabeta(-beta, -beta+1, depth-1-reduction, ply+1, &nullPV, position.NoMove, true)
		s.pos.UnmakeMove()
		if s.stopped {
			return 0
		}
		if score >= beta {
			s.stats.NullMoveCutoffs++
			if score >= Checkmate {
				score = beta
			}
			return score
		}
	}

	side := s.pos.SideToMove()
	moveList := s.scoreMovesList(moves, ply, ttMove, prevMove)
	var childPV PVLine
	bestScore := -MaxScore
	bestMove := position.NoMove
	ttFlag := AlphaFlag
	quietsTried := make([]position.Move, 0, len(moves))

	for index := range moveList.moves {
		orderNextMove(index, &moveList)
		move := moveList.moves[index].move
		quiet := s.pos.CapturedPiece(move) == position.NoPiece && move.Promote() == position.NoPiece

		s.pos.MakeMove(move)
		givesCheck := s.pos.InCheck()
		var score int32
		if index == 0 {
			score = -s.alphabeta(-beta, -alpha, depth-1, ply+1, &childPV, move, false)
		} else {
			var reduction int8
			if s.opts.LateMoveReduction && quiet && !inCheck && !givesCheck && depth >= 3 && index >= 3 &&
				s.killers.IsKiller(move, ply) < 0 {
				reduction = computeLMRReduction(depth, index)
			}
			score = s.searchMoveWithPVS(move, depth-1, reduction, alpha, beta, ply, &childPV)
		}
		s.pos.UnmakeMove()

		if s.stopped {
			if bestScore == -MaxScore {
				return alpha
			}
			return bestScore
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score >= beta {
			s.stats.BetaCutoffs++
			ttFlag = BetaFlag
			if quiet {
				s.killers.InsertKiller(move, ply)
				s.history.StoreCounter(side, prevMove, move)
				s.history.Increment(side, move, depth)
				for _, failed := range quietsTried {
					s.history.Decrement(side, failed, depth)
				}
			}
			break
		}
		if score > alpha {
			alpha = score
			ttFlag = ExactFlag
			pvLine.Update(move, childPV)
		}
		if quiet {
			quietsTried = append(quietsTried, move)
		}
	}

	if s.opts.UseTT {
		s.tt.Store(hash, depth, ply, bestMove, bestScore, ttFlag)
	}
	return bestScore
}

// searchMoveWithPVS performs a Principal Variation Search for a move
// This implements the standard PVS 3-stage pattern:
// 1. Search with reduced depth using null window
// 2. If reduction was applied and score > alpha, re-search at full depth with null window
// 3. If score is between alpha and beta, do a full window search
func (s *Searcher) searchMoveWithPVS(move position.Move, depth, reduction int8, alpha, beta int32, ply int, childPV *PVLine) int32 {
	score := -s.alphabeta(-(alpha + 1), -alpha, depth-reduction, ply+1, childPV, move, false)
	if s.stopped {
		return score
	}

	if score > alpha && reduction > 0 {
		s.stats.Researches++
		score = -s.alphabeta(-(alpha + 1), -alpha, depth, ply+1, childPV, move, false)
		if s.stopped {
			return score
		}
	}

	if score > alpha && score < beta {
		s.stats.Researches++
		score = -s.alphabeta(-beta, -alpha, depth, ply+1, childPV, move, false)
	}
	return score
}
