package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chess-search/engine"
	"chess-search/position"
)

const (
	engineName   = "chess-search"
	engineAuthor = "chess-search authors"
)

func main() {
	debug := flag.Bool("debug", false, "log search statistics to stderr")
	book := flag.String("book", "", "opening book CSV loaded at startup")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	u, err := newUCI(os.Stdout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("engine-init")
	}
	if *book != "" {
		if err := u.loadBook(*book); err != nil {
			logger.Fatal().Err(err).Str("path", *book).Msg("book-load")
		}
	}
	u.loop(os.Stdin)
}

// uci speaks the protocol on out. Searches run in the background; info and
// bestmove lines are written from the search goroutine.
type uci struct {
	mu  sync.Mutex
	out io.Writer
	log zerolog.Logger

	engine *engine.Engine
	pos    *position.Position

	searchDone chan struct{}
	// hold keeps the bestmove of an infinite or pondering search back until
	// stop or ponderhit.
	hold chan struct{}
}

func newUCI(out io.Writer, logger zerolog.Logger) (*uci, error) {
	e, err := engine.NewEngine(engine.DefaultOptions(), logger)
	if err != nil {
		return nil, err
	}
	return &uci{out: out, log: logger, engine: e, pos: position.StartPosition()}, nil
}

func (u *uci) println(a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.out, a...)
}

func (u *uci) printf(format string, a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, a...)
}

func (u *uci) loop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		if !u.handle(tokens) {
			return
		}
	}
	u.stopSearch()
}

// handle runs one command and reports whether the loop should continue.
func (u *uci) handle(tokens []string) bool {
	switch strings.ToLower(tokens[0]) {
	case "uci":
		u.println("id name", engineName)
		u.println("id author", engineAuthor)
		for _, spec := range engine.OptionSpecs() {
			if spec.Type == "spin" {
				u.printf("option name %s type spin default %s min %d max %d\n", spec.Name, spec.Default, spec.Min, spec.Max)
			} else {
				u.printf("option name %s type %s default %s\n", spec.Name, spec.Type, spec.Default)
			}
		}
		u.println("option name Ponder type check default false")
		u.println("option name BookFile type string default <empty>")
		u.println("uciok")
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.stopSearch()
		if err := u.engine.NewGame(); err != nil {
			u.println("info string", err)
		}
		u.pos = position.StartPosition()
	case "position":
		u.stopSearch()
		pos, err := parsePosition(tokens[1:])
		if err != nil {
			u.println("info string", err)
			return true
		}
		u.pos = pos
	case "go":
		u.stopSearch()
		tc, err := parseGo(tokens[1:], u.pos)
		if err != nil {
			u.println("info string", err)
			return true
		}
		u.startSearch(tc)
	case "stop":
		u.stopSearch()
	case "ponderhit":
		u.engine.PonderHit()
		u.release()
	case "setoption":
		u.stopSearch()
		name, value := parseSetOption(tokens[1:])
		if err := u.setOption(name, value); err != nil {
			u.println("info string", err)
		}
	case "quit":
		u.stopSearch()
		return false
	default:
		u.println("info string Unknown command:", strings.Join(tokens, " "))
	}
	return true
}

func (u *uci) setOption(name, value string) error {
	// Pondering is driven by the GUI through go ponder and ponderhit.
	if strings.EqualFold(name, "ponder") {
		return nil
	}
	if strings.EqualFold(strings.ReplaceAll(name, " ", ""), "bookfile") {
		if value == "" || value == "<empty>" {
			return u.engine.SetBook(nil)
		}
		return u.loadBook(value)
	}
	return u.engine.SetOption(name, value)
}

func (u *uci) loadBook(path string) error {
	book, err := engine.OpenOpeningBook(path)
	if err != nil {
		return err
	}
	u.log.Info().Str("path", path).Int("positions", book.Len()).Msg("book-loaded")
	return u.engine.SetBook(book)
}

func (u *uci) startSearch(tc engine.TimeControl) {
	h, err := u.engine.StartSearch(context.Background(), u.pos, tc)
	if err != nil {
		u.println("info string", err)
		return
	}
	done := make(chan struct{})
	u.searchDone = done
	var hold chan struct{}
	if tc.Infinite || tc.Ponder {
		hold = make(chan struct{})
	}
	u.hold = hold
	go func() {
		defer close(done)
		for info := range h.Progress {
			u.println(formatInfo(info))
		}
		res, err := h.Wait()
		if err != nil {
			u.log.Error().Err(err).Msg("search")
		}
		if hold != nil {
			<-hold
		}
		u.println(formatBestMove(res))
	}()
}

// release lets a held bestmove line be written.
func (u *uci) release() {
	if u.hold != nil {
		close(u.hold)
		u.hold = nil
	}
}

// stopSearch ends a running search and waits for its bestmove line.
func (u *uci) stopSearch() {
	if u.searchDone == nil {
		return
	}
	u.engine.Stop()
	u.release()
	<-u.searchDone
	u.searchDone = nil
}

func formatInfo(info engine.Info) string {
	return fmt.Sprintf("info depth %d seldepth %d score %s nodes %d nps %d hashfull %d time %d pv %s",
		info.Depth, info.SelDepth, engine.FormatScore(info.Score), info.Nodes, info.NPS,
		info.Hashfull, info.Elapsed.Milliseconds(), engine.MovesString(info.PV))
}

func formatBestMove(res engine.Result) string {
	if res.BestMove == position.NoMove {
		return "bestmove 0000"
	}
	best, ponder := res.BestMove, res.PonderMove
	if ponder == position.NoMove {
		return "bestmove " + best.String()
	}
	return "bestmove " + best.String() + " ponder " + ponder.String()
}

// parsePosition handles "startpos [moves ...]" and "fen <fen> [moves ...]".
func parsePosition(args []string) (*position.Position, error) {
	if len(args) == 0 {
		return nil, errors.New("malformed position command")
	}
	var pos *position.Position
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos = position.StartPosition()
	case "fen":
		end := len(rest)
		for i, tok := range rest {
			if strings.ToLower(tok) == "moves" {
				end = i
				break
			}
		}
		var err error
		pos, err = position.FromFEN(strings.Join(rest[:end], " "))
		if err != nil {
			return nil, err
		}
		rest = rest[end:]
	default:
		return nil, fmt.Errorf("invalid position subcommand %q", args[0])
	}

	if len(rest) == 0 {
		return pos, nil
	}
	if strings.ToLower(rest[0]) != "moves" {
		return nil, fmt.Errorf("unexpected %q after position", rest[0])
	}
	for _, token := range rest[1:] {
		m, err := pos.ParseMove(strings.ToLower(token))
		if err != nil {
			return nil, fmt.Errorf("move %s in %s: %w", token, pos.FEN(), err)
		}
		pos.MakeMove(m)
	}
	return pos, nil
}

// parseGo reads the go command arguments. Clock values are in milliseconds;
// only the side to move's clock is kept.
func parseGo(args []string, pos *position.Position) (engine.TimeControl, error) {
	var tc engine.TimeControl
	var wtime, btime, winc, binc time.Duration
	white := pos.SideToMove() == position.White

	for i := 0; i < len(args); i++ {
		token := strings.ToLower(args[i])
		switch token {
		case "infinite":
			tc.Infinite = true
			continue
		case "ponder":
			tc.Ponder = true
			continue
		case "searchmoves":
			for i+1 < len(args) {
				m, err := pos.ParseMove(strings.ToLower(args[i+1]))
				if err != nil {
					break
				}
				tc.SearchMoves = append(tc.SearchMoves, m)
				i++
			}
			continue
		}

		if i+1 >= len(args) {
			return tc, fmt.Errorf("malformed go command option %s", token)
		}
		i++
		value, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return tc, fmt.Errorf("malformed go command option %s: %w", token, err)
		}
		ms := time.Duration(value) * time.Millisecond
		switch token {
		case "wtime":
			wtime = ms
		case "btime":
			btime = ms
		case "winc":
			winc = ms
		case "binc":
			binc = ms
		case "movestogo":
			tc.MovesToGo = int(value)
		case "movetime":
			tc.MoveTime = ms
		case "depth":
			tc.Depth = int(value)
		case "nodes":
			tc.Nodes = uint64(value)
		case "mate":
			tc.Depth = int(2*value - 1)
		default:
			return tc, fmt.Errorf("unknown go subcommand %s", token)
		}
	}

	if white {
		tc.Remaining, tc.Increment = wtime, winc
	} else {
		tc.Remaining, tc.Increment = btime, binc
	}
	return tc, nil
}

// parseSetOption splits "name <words> value <words>".
func parseSetOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	target := &nameParts
	for _, tok := range args {
		switch strings.ToLower(tok) {
		case "name":
			target = &nameParts
		case "value":
			target = &valueParts
		default:
			*target = append(*target, tok)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}
