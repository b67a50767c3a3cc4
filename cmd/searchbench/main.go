package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"chess-search/engine"
	"chess-search/position"
)

// benchPositions are searched when no -fen is given.
var benchPositions = []string{
	position.Startpos,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
}

type config struct {
	depth   int
	repeat  int
	fen     string
	hash    int
	profile string
	verbose bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.depth, "depth", 8, "search depth in plies")
	flag.IntVar(&cfg.repeat, "repeat", 1, "number of passes over the positions")
	flag.StringVar(&cfg.fen, "fen", "", "FEN to search (empty = built-in bench positions)")
	flag.IntVar(&cfg.hash, "hash", 64, "transposition table size in MB")
	flag.StringVar(&cfg.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.BoolVar(&cfg.verbose, "v", false, "print every completed depth")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("searchbench")
		os.Exit(1)
	}
}

// run returns instead of exiting so a deferred profile is always written.
func run(cfg config) error {
	if cfg.depth <= 0 {
		return fmt.Errorf("depth must be positive, got %d", cfg.depth)
	}

	switch cfg.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("profile must be cpu or mem, got %q", cfg.profile)
	}

	opts := engine.DefaultOptions()
	opts.Hash = cfg.hash
	e, err := engine.NewEngine(opts, zerolog.Nop())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	fens := benchPositions
	if cfg.fen != "" {
		fens = []string{cfg.fen}
	}
	fmt.Printf("searchbench: positions=%d depth=%d repeat=%d hash=%s\n",
		len(fens), cfg.depth, cfg.repeat, humanize.IBytes(uint64(cfg.hash)<<20))

	var totalNodes uint64
	startAll := time.Now()
	for i := 0; i < cfg.repeat; i++ {
		for _, fen := range fens {
			pos, err := position.FromFEN(fen)
			if err != nil {
				return fmt.Errorf("parse FEN %q: %w", fen, err)
			}
			if err := e.NewGame(); err != nil {
				return fmt.Errorf("new game: %w", err)
			}
			report := func(info engine.Info) {
				if cfg.verbose {
					fmt.Printf("  depth %2d %-10s nodes %s pv %s\n", info.Depth, engine.FormatScore(info.Score),
						humanize.Comma(int64(info.Nodes)), engine.MovesString(info.PV))
				}
			}
			res, err := e.Search(context.Background(), pos, engine.TimeControl{Depth: cfg.depth}, report)
			if err != nil {
				return fmt.Errorf("search %q: %w", fen, err)
			}
			totalNodes += res.Nodes
			fmt.Printf("bestmove %s %-10s depth %d nodes %s time %v\n", res.BestMove.String(),
				engine.FormatScore(res.Score), res.Depth, humanize.Comma(int64(res.Nodes)), res.Elapsed)
		}
	}
	totalElapsed := time.Since(startAll)
	nps := float64(totalNodes) / totalElapsed.Seconds()
	fmt.Printf("total: nodes %s time %v nps %s\n", humanize.Comma(int64(totalNodes)), totalElapsed,
		humanize.SIWithDigits(nps, 2, ""))
	return nil
}
