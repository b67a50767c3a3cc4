package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chess-search/eval"
	"chess-search/position"
)

// Engine owns the searcher and its transposition table and runs at most one
// search at a time. Commands that would disturb a running search are
// refused with ErrSearchInProgress.
type Engine struct {
	opts     Options
	tt       *TransTable
	searcher *Searcher
	book     Book
	gameID   uuid.UUID
	log      zerolog.Logger

	busy    atomic.Bool
	current atomic.Pointer[TimeHandler]
}

func NewEngine(opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tt := NewTransTable(opts.Hash)
	e := &Engine{
		opts:     opts,
		tt:       tt,
		searcher: NewSearcher(tt, eval.Tapered{}, opts),
		gameID:   uuid.New(),
		log:      logger,
	}
	e.log.Info().
		Str("hash", humanize.IBytes(uint64(opts.Hash)<<20)).
		Str("entries", humanize.Comma(int64(tt.Len()))).
		Str("game", e.gameID.String()).
		Msg("engine-ready")
	return e, nil
}

// SearchHandle follows a running search. Progress is closed when the search
// ends; Wait blocks until then.
type SearchHandle struct {
	Progress <-chan Info

	done   chan struct{}
	result Result
	err    error
}

func (h *SearchHandle) Wait() (Result, error) {
	<-h.done
	return h.result, h.err
}

// Done is closed once the result is available.
func (h *SearchHandle) Done() <-chan struct{} {
	return h.done
}

// StartSearch searches a copy of pos in the background. Cancelling ctx or
// calling Stop ends the search early; the result still holds the best move
// of the last completed depth. Progress buffers one report per depth, so
// callers that only want the result may ignore it.
func (e *Engine) StartSearch(ctx context.Context, pos *position.Position, tc TimeControl) (*SearchHandle, error) {
	if pos == nil {
		return nil, fmt.Errorf("%w: no position", ErrInvalidPosition)
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if err := e.acquire("go"); err != nil {
		return nil, err
	}

	root := pos.Clone()
	timer := NewTimeHandler()
	e.current.Store(timer)

	progress := make(chan Info, MaxPly+1)
	h := &SearchHandle{Progress: progress, done: make(chan struct{})}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		defer close(progress)
		res, err := e.think(root, tc, timer, func(info Info) {
			progress <- info
		})
		h.result = res
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		timer.RequestStop()
		return nil
	})

	go func() {
		h.err = g.Wait()
		cancel()
		e.current.CompareAndSwap(timer, nil)
		e.release()
		close(h.done)
	}()
	return h, nil
}

// Search runs a search to completion, passing progress to report.
func (e *Engine) Search(ctx context.Context, pos *position.Position, tc TimeControl, report func(Info)) (Result, error) {
	h, err := e.StartSearch(ctx, pos, tc)
	if err != nil {
		return Result{}, err
	}
	for info := range h.Progress {
		if report != nil {
			report(info)
		}
	}
	return h.Wait()
}

func (e *Engine) think(root *position.Position, tc TimeControl, timer *TimeHandler, report func(Info)) (Result, error) {
	logger := e.log.With().Str("game", e.gameID.String()).Logger()

	if e.opts.OwnBook && e.book != nil {
		if m, ok := e.book.Lookup(root); ok {
			logger.Info().Str("move", m.String()).Str("fen", root.FEN()).Msg("book-hit")
			return Result{
				BestMove:  m,
				PV:        []position.Move{m},
				RootMoves: len(root.LegalMoves()),
				FromBook:  true,
				GameID:    e.gameID,
			}, nil
		}
	}

	budget := Allocate(tc, eval.Phase(root), e.opts.MoveOverhead)
	limits := Limits{
		Depth:       tc.Depth,
		Nodes:       tc.Nodes,
		Budget:      budget,
		SearchMoves: tc.SearchMoves,
		Infinite:    tc.Infinite,
		Ponder:      tc.Ponder,
	}
	logger.Debug().
		Str("fen", root.FEN()).
		Dur("soft", budget.Soft).
		Dur("hard", budget.Hard).
		Int("depth", tc.Depth).
		Uint64("nodes", tc.Nodes).
		Bool("ponder", tc.Ponder).
		Msg("search-start")

	res, err := e.searcher.Think(root, limits, timer, report)
	if err != nil {
		logger.Error().Err(err).Msg("search-failed")
		return res, err
	}
	res.GameID = e.gameID

	tts := e.tt.Stats()
	logger.Info().
		Str("best", res.BestMove.String()).
		Str("score", FormatScore(res.Score)).
		Int("depth", res.Depth).
		Str("nodes", humanize.Comma(int64(res.Nodes))).
		Dur("elapsed", res.Elapsed).
		Str("game-over", res.GameOver.String()).
		Msg("search-done")
	logger.Debug().
		Object("cuts", e.searcher.Stats()).
		Str("tt-hits", humanize.Comma(int64(tts.Hits))).
		Str("tt-stores", humanize.Comma(int64(tts.Stores))).
		Msg("search-statistics")
	return res, nil
}

// Stop asks the running search, if any, to finish.
func (e *Engine) Stop() {
	if timer := e.current.Load(); timer != nil {
		timer.RequestStop()
	}
}

// PonderHit switches a pondering search to its normal time budget.
func (e *Engine) PonderHit() {
	if timer := e.current.Load(); timer != nil {
		timer.PonderHit()
	}
}

// Searching reports whether a search is in progress.
func (e *Engine) Searching() bool {
	return e.busy.Load()
}

func (e *Engine) acquire(command string) error {
	if !e.busy.CompareAndSwap(false, true) {
		e.log.Warn().Str("command", command).Msg("rejected-while-searching")
		return fmt.Errorf("%s: %w", command, ErrSearchInProgress)
	}
	return nil
}

func (e *Engine) release() {
	e.busy.Store(false)
}

// NewGame forgets everything learned in the previous game and starts a new
// game identity.
func (e *Engine) NewGame() error {
	if err := e.acquire("ucinewgame"); err != nil {
		return err
	}
	defer e.release()
	e.tt.Clear()
	e.searcher.ClearHeuristics()
	e.gameID = uuid.New()
	e.log.Info().Str("game", e.gameID.String()).Msg("new-game")
	return nil
}

func (e *Engine) ClearHash() error {
	if err := e.acquire("clearhash"); err != nil {
		return err
	}
	defer e.release()
	e.tt.Clear()
	return nil
}

func (e *Engine) SetHashSize(megabytes int) error {
	return e.SetOption("Hash", fmt.Sprint(megabytes))
}

// SetOption changes one option by UCI name.
func (e *Engine) SetOption(name, value string) error {
	if err := e.acquire("setoption"); err != nil {
		return err
	}
	defer e.release()
	next := e.opts
	if err := next.Set(name, value); err != nil {
		return err
	}
	if next.Hash != e.opts.Hash {
		e.tt.Resize(next.Hash)
		e.log.Info().
			Str("hash", humanize.IBytes(uint64(next.Hash)<<20)).
			Str("entries", humanize.Comma(int64(e.tt.Len()))).
			Msg("hash-resized")
	}
	e.opts = next
	e.searcher.SetOptions(next)
	return nil
}

// SetBook installs the opening book consulted when OwnBook is on.
func (e *Engine) SetBook(b Book) error {
	if err := e.acquire("setbook"); err != nil {
		return err
	}
	defer e.release()
	e.book = b
	return nil
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) GameID() uuid.UUID {
	return e.gameID
}
