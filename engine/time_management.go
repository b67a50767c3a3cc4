package engine

import (
	"sync/atomic"
	"time"

	"chess-search/position"
)

// Engine-side safety knobs
const (
	StartTimeOverhead = 30 * time.Millisecond // reserve for UCI/IO jitter
	minMoveTime       = 5 * time.Millisecond  // never less than this
	maxFrac           = 0.7                   // never spend >70% of remaining time
	panicThreshold    = time.Second
	panicFrac         = 0.90 // use 90% of inc in panic
	hardFactor        = 4
)

// TimeControl is what the GUI hands us for one move. Zero fields are unset.
type TimeControl struct {
	Remaining time.Duration
	Increment time.Duration
	MovesToGo int
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool

	// Ponder searches the predicted reply without a time limit until
	// PonderHit hands the search the budget of this time control.
	Ponder bool

	// SearchMoves restricts the root to these moves when non-empty.
	SearchMoves []position.Move
}

// Budget is the time a search may spend. Soft is checked before starting a
// new iteration, Hard aborts a running one. Zero means no limit.
type Budget struct {
	Soft time.Duration
	Hard time.Duration
}

func (b Budget) Unlimited() bool {
	return b.Soft == 0 && b.Hard == 0
}

// Allocate turns a time control into a budget. phase runs from TotalPhase in
// the opening down to 0 and drives the moves-left estimate when the GUI does
// not send movestogo. Searches limited only by depth or nodes get no time
// limit.
func Allocate(tc TimeControl, phase int, overhead time.Duration) Budget {
	if tc.Infinite {
		return Budget{}
	}
	if tc.MoveTime > 0 {
		t := Max(tc.MoveTime-overhead, minMoveTime)
		return Budget{Soft: t, Hard: t}
	}
	if tc.Remaining <= 0 {
		return Budget{}
	}

	movesLeft := tc.MovesToGo
	if movesLeft <= 0 {
		movesLeft = estimateMovesRemaining(phase) // 20..45
	}

	rem, inc := tc.Remaining, tc.Increment
	var soft time.Duration
	if inc > 0 && rem < panicThreshold {
		// Panic: try to "bank" a little time
		soft = time.Duration(float64(inc) * panicFrac)
	} else {
		soft = rem/time.Duration(movesLeft) + inc*3/4
	}

	ceiling := time.Duration(float64(rem)*maxFrac) - overhead
	hard := Min(soft*hardFactor, ceiling)
	hard = Max(hard, minMoveTime) // re-check after ceiling
	soft = Clamp(soft, minMoveTime, hard)
	return Budget{Soft: soft, Hard: hard}
}

func estimateMovesRemaining(phase int) int {
	// Linearly interpolate between 20 (endgame) and 45 (opening/midgame)
	phase = Clamp(phase, 0, 24)
	return (phase*25)/24 + 20
}

// TimeHandler tracks one search's clock and stop signal. RequestStop may be
// called from any goroutine; everything else belongs to the search.
type TimeHandler struct {
	start     time.Time
	limitFrom time.Time // budget is measured from here
	budget    Budget
	soft      time.Duration
	nodeLimit uint64
	extended  bool
	stop      atomic.Bool
	hardTimer *time.Timer

	reserved  Budget
	pondering atomic.Bool
	ponderHit atomic.Bool
}

func NewTimeHandler() *TimeHandler {
	return &TimeHandler{start: time.Now()}
}

// Start begins timing. A stop requested before Start stays in effect.
func (th *TimeHandler) Start(budget Budget, nodeLimit uint64) {
	th.start = time.Now()
	th.limitFrom = th.start
	th.budget = budget
	th.soft = budget.Soft
	th.nodeLimit = nodeLimit
	th.extended = false
	if budget.Hard > 0 {
		th.hardTimer = time.AfterFunc(budget.Hard, th.RequestStop)
	}
}

// StartPondering begins an open-ended search and keeps budget in reserve
// until PonderHit.
func (th *TimeHandler) StartPondering(budget Budget, nodeLimit uint64) {
	th.Start(Budget{}, nodeLimit)
	th.reserved = budget
	th.pondering.Store(true)
}

// PonderHit tells a pondering search that the predicted move was played.
// It may be called from any goroutine; the search switches to the reserved
// budget at its next poll.
func (th *TimeHandler) PonderHit() {
	th.ponderHit.Store(true)
}

// Pondering reports whether the search is still waiting for PonderHit.
func (th *TimeHandler) Pondering() bool {
	return th.pondering.Load() && !th.ponderHit.Load()
}

// applyPonderHit runs on the search goroutine and arms the reserved budget,
// measured from the moment it is seen.
func (th *TimeHandler) applyPonderHit() {
	if !th.pondering.Load() || !th.ponderHit.Load() {
		return
	}
	th.pondering.Store(false)
	th.limitFrom = time.Now()
	th.budget = th.reserved
	th.soft = th.reserved.Soft
	if th.reserved.Hard > 0 {
		th.hardTimer = time.AfterFunc(th.reserved.Hard, th.RequestStop)
	}
}

// Finish releases the hard limit timer.
func (th *TimeHandler) Finish() {
	if th.hardTimer != nil {
		th.hardTimer.Stop()
	}
}

func (th *TimeHandler) Elapsed() time.Duration {
	return time.Since(th.start)
}

func (th *TimeHandler) RequestStop() {
	th.stop.Store(true)
}

func (th *TimeHandler) Stopped() bool {
	return th.stop.Load()
}

// ShouldStop is polled by the search every few thousand nodes.
func (th *TimeHandler) ShouldStop(nodes uint64) bool {
	if th.stop.Load() {
		return true
	}
	if th.nodeLimit > 0 && nodes >= th.nodeLimit {
		return true
	}
	th.applyPonderHit()
	if th.budget.Hard > 0 && time.Since(th.limitFrom) >= th.budget.Hard {
		th.stop.Store(true)
		return true
	}
	return false
}

// SoftTimeExceeded reports whether starting another iteration is pointless.
func (th *TimeHandler) SoftTimeExceeded() bool {
	if th.stop.Load() {
		return true
	}
	th.applyPonderHit()
	return th.soft > 0 && time.Since(th.limitFrom) >= th.soft
}

// UpdateStability gives the search more time, once, when the best move
// changed between iterations.
func (th *TimeHandler) UpdateStability(bestMoveChanged bool) {
	if !bestMoveChanged || th.extended {
		return
	}
	th.ExtendTime(th.soft / 2)
	th.extended = true
}

// ExtendTime moves the soft limit, never past the hard one.
func (th *TimeHandler) ExtendTime(extra time.Duration) {
	if th.soft == 0 {
		return
	}
	th.soft += extra
	if th.budget.Hard > 0 && th.soft > th.budget.Hard {
		th.soft = th.budget.Hard
	}
}

func (th *TimeHandler) Budget() Budget {
	return th.budget
}
