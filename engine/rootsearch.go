package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chess-search/position"
)

// Limits bound one search. Zero fields are unlimited.
type Limits struct {
	Depth       int
	Nodes       uint64
	Budget      Budget
	SearchMoves []position.Move

	// Infinite keeps deepening after a mate is found; only Stop or the
	// depth and node limits end the search.
	Infinite bool
	// Ponder holds Budget back until the timer sees PonderHit.
	Ponder bool
}

// Info is reported after every completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int32
	Nodes    uint64
	Elapsed  time.Duration
	NPS      uint64
	Hashfull int
	PV       []position.Move
}

// GameOver tells why a search had nothing to play.
type GameOver uint8

const (
	GameOngoing GameOver = iota
	GameCheckmate
	GameStalemate
)

func (g GameOver) String() string {
	switch g {
	case GameCheckmate:
		return "checkmate"
	case GameStalemate:
		return "stalemate"
	}
	return "ongoing"
}

// Result of a search. BestMove always comes from the last completed
// iteration, or from move ordering when none completed.
type Result struct {
	BestMove   position.Move
	PonderMove position.Move
	Score      int32
	PV         []position.Move
	Nodes      uint64
	Depth      int
	SelDepth   int
	RootMoves  int
	Elapsed    time.Duration
	GameOver   GameOver
	FromBook   bool
	GameID     uuid.UUID
}

// Think searches pos by iterative deepening until a limit is hit or the
// timer is stopped. pos is restored before Think returns. A nil timer runs
// without external cancellation.
func (s *Searcher) Think(pos *position.Position, limits Limits, timer *TimeHandler, report func(Info)) (Result, error) {
	if pos == nil {
		return Result{}, fmt.Errorf("%w: no position", ErrInvalidPosition)
	}
	if err := pos.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if timer == nil {
		timer = NewTimeHandler()
	}
	s.prepare(pos, timer)
	if s.opts.UseTT {
		s.tt.NewSearch()
	}
	if limits.Ponder {
		timer.StartPondering(limits.Budget, limits.Nodes)
	} else {
		timer.Start(limits.Budget, limits.Nodes)
	}
	defer timer.Finish()

	rootMoves := pos.LegalMoves()
	result := Result{RootMoves: len(rootMoves)}
	if restricted := filterMoves(rootMoves, limits.SearchMoves); len(restricted) > 0 {
		s.searchMoves = limits.SearchMoves
		rootMoves = restricted
	}
	if len(rootMoves) == 0 {
		if pos.InCheck() {
			result.GameOver = GameCheckmate
			result.Score = MatedIn(0)
		} else {
			result.GameOver = GameStalemate
			result.Score = DrawScore
		}
		return result, nil
	}

	// Seed with the first ordered root move so a stop before depth 1
	// completes still has something legal to play.
	var ttMove position.Move
	if s.opts.UseTT {
		if entry, found := s.tt.Probe(pos.Fingerprint()); found {
			ttMove = entry.Move
		}
	}
	seed := s.scoreMovesList(rootMoves, 0, ttMove, position.NoMove)
	orderNextMove(0, &seed)
	result.BestMove = seed.moves[0].move
	result.PV = []position.Move{result.BestMove}
	result.Score = s.evaluate()

	maxDepth := depthLimit(limits.Depth)

	var pvLine PVLine
	prevBest := position.NoMove
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && timer.SoftTimeExceeded() {
			break
		}

		score := s.aspirationSearch(depth, result.Score, &pvLine)
		if s.stopped || len(pvLine.Moves) == 0 {
			break
		}

		result.BestMove = pvLine.GetPVMove()
		result.PV = pvLine.Clone().Moves
		result.PonderMove = position.NoMove
		if len(result.PV) > 1 {
			result.PonderMove = result.PV[1]
		}
		result.Score = score
		result.Depth = depth
		result.SelDepth = s.selDepth

		if report != nil {
			report(s.info(result, timer))
		}

		timer.UpdateStability(depth > 1 && result.BestMove != prevBest)
		prevBest = result.BestMove

		if limits.Nodes > 0 && s.nodes >= limits.Nodes {
			break
		}
		// A mate inside the full-width horizon will not get shorter.
		open := limits.Infinite || timer.Pondering()
		if !open && IsMateScore(score) && int(MateScore-Abs(score)) <= depth {
			break
		}
	}

	result.Nodes = s.nodes
	result.Elapsed = timer.Elapsed()
	return result, nil
}

// depthLimit returns the deepest iteration for a requested depth, 0 meaning
// no limit. The check extension may add one ply to the root depth, which
// must still fit an int8.
func depthLimit(requested int) int {
	if requested <= 0 || requested > MaxPly-2 {
		return MaxPly - 2
	}
	return requested
}

// filterMoves keeps the moves of legal found in allowed. An empty allowed
// list keeps nothing.
func filterMoves(legal, allowed []position.Move) []position.Move {
	return lo.Filter(legal, func(m position.Move, _ int) bool {
		return lo.Contains(allowed, m)
	})
}

// aspirationSearch searches the root at depth inside a window around the
// previous score, widening it on fail low or high until the score is exact.
func (s *Searcher) aspirationSearch(depth int, prevScore int32, pvLine *PVLine) int32 {
	alpha, beta := -MaxScore, MaxScore
	delta := s.opts.AspirationWindow
	if delta > 0 && depth >= 4 && !IsMateScore(prevScore) {
		alpha = Max(prevScore-delta, -MaxScore)
		beta = Min(prevScore+delta, MaxScore)
	}

	for {
		s.selDepth = 0
		score := s.alphabeta(alpha, beta, int8(depth), 0, pvLine, position.NoMove, false)
		if s.stopped {
			return score
		}
		switch {
		case score <= alpha && alpha > -MaxScore:
			alpha = Max(score-delta, -MaxScore)
		case score >= beta && beta < MaxScore:
			beta = Min(score+delta, MaxScore)
		default:
			return score
		}
		delta *= 2
	}
}

func (s *Searcher) info(result Result, timer *TimeHandler) Info {
	elapsed := timer.Elapsed()
	var nps uint64
	if elapsed > 0 {
		nps = uint64(float64(s.nodes) / elapsed.Seconds())
	}
	return Info{
		Depth:    result.Depth,
		SelDepth: result.SelDepth,
		Score:    result.Score,
		Nodes:    s.nodes,
		Elapsed:  elapsed,
		NPS:      nps,
		Hashfull: s.tt.Hashfull(),
		PV:       append([]position.Move(nil), result.PV...),
	}
}
