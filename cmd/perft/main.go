package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"chess-search/position"
)

func main() {
	fen := flag.String("fen", position.Startpos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	prof := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(*fen, *depth, *divide, *repeat, *label, *prof); err != nil {
		log.Error().Err(err).Msg("perft")
		os.Exit(1)
	}
}

// run returns instead of exiting so a deferred profile is always written.
func run(fen string, depth int, divide bool, repeat int, label, prof string) error {
	if depth <= 0 {
		return fmt.Errorf("-depth must be > 0, got %d", depth)
	}
	pos, err := position.FromFEN(fen)
	if err != nil {
		return fmt.Errorf("parse FEN: %w", err)
	}

	switch prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("profile must be cpu or mem, got %q", prof)
	}

	if divide {
		printDivide(pos, depth)
		return nil
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < repeat; i++ {
		totalNodes += pos.Perft(depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%s \t\t%s \t%s\n", label, depth, humanize.Comma(int64(totalNodes)), elapsed, humanize.SIWithDigits(nps, 2, "nps"))
	return nil
}

func printDivide(pos *position.Position, depth int) {
	type kv struct {
		move  string
		nodes uint64
	}
	moves := pos.LegalMoves()
	counts := make([]kv, 0, len(moves))
	var sum uint64
	for i := range moves {
		pos.MakeMove(moves[i])
		n := pos.Perft(depth - 1)
		pos.UnmakeMove()
		counts = append(counts, kv{moves[i].String(), n})
		sum += n
	}
	// Sort moves for stable output
	sort.Slice(counts, func(i, j int) bool { return counts[i].move < counts[j].move })
	for _, c := range counts {
		fmt.Printf("%s: %d\n", c.move, c.nodes)
	}
	fmt.Printf("Total: %d\n", sum)
}
