package position

import (
	"errors"
	"strings"
	"testing"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	p, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return p
}

func playMoves(t *testing.T, p *Position, moves ...string) {
	t.Helper()
	for _, uci := range moves {
		m, err := p.ParseMove(uci)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", uci, err)
		}
		p.MakeMove(m)
	}
}

func TestStartPositionMoves(t *testing.T) {
	p := StartPosition()
	if got := len(p.LegalMoves()); got != 20 {
		t.Fatalf("expected 20 legal moves, got %d", got)
	}
	if p.SideToMove() != White {
		t.Fatalf("expected white to move")
	}
	if p.InCheck() || p.IsCheckmate() || p.IsStalemate() {
		t.Fatalf("start position reported as check/mate/stalemate")
	}
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  uint64
	}{
		{"startpos d1", Startpos, 1, 20},
		{"startpos d2", Startpos, 2, 400},
		{"startpos d3", Startpos, 3, 8902},
		{"kiwipete d1", kiwipete, 1, 48},
		{"kiwipete d2", kiwipete, 2, 2039},
		{"endgame d3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustFEN(t, tt.fen)
			before := p.FEN()
			if got := p.Perft(tt.depth); got != tt.want {
				t.Fatalf("perft(%d) = %d, want %d", tt.depth, got, tt.want)
			}
			if after := p.FEN(); after != before {
				t.Fatalf("perft changed the position: %s -> %s", before, after)
			}
		})
	}
}

func TestFromFENRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"not a fen",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkqK - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ1BNR w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKKNR w - - 0 1",
		"rnbqkbnP/pppppppp/8/8/8/8/PPPPPPP1/RNBQKBNR w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w K - 0 1",
		// black king in check with white to move
		"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
	}
	for _, fen := range bad {
		if _, err := FromFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("FromFEN(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestFromFENWithoutClocks(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 b - -")
	if p.SideToMove() != Black {
		t.Fatalf("expected black to move")
	}
	if p.FiftyMoveCounter() != 0 {
		t.Fatalf("expected halfmove clock 0, got %d", p.FiftyMoveCounter())
	}
}

func TestMakeUnmakeRestores(t *testing.T) {
	p := mustFEN(t, kiwipete)
	fen, hash := p.FEN(), p.Fingerprint()
	for _, m := range p.LegalMoves() {
		p.MakeMove(m)
		if p.Ply() != 1 {
			t.Fatalf("expected ply 1 after %s, got %d", m.String(), p.Ply())
		}
		p.UnmakeMove()
		if p.FEN() != fen || p.Fingerprint() != hash {
			t.Fatalf("unmake of %s did not restore %s (got %s)", m.String(), fen, p.FEN())
		}
	}
	if p.Ply() != 0 {
		t.Fatalf("history not unwound, ply %d", p.Ply())
	}
}

func TestNullMove(t *testing.T) {
	p := mustFEN(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	fen, hash := p.FEN(), p.Fingerprint()
	p.MakeNullMove()
	if p.SideToMove() != Black {
		t.Fatalf("null move did not pass the turn")
	}
	if p.Fingerprint() == hash {
		t.Fatalf("null move left the fingerprint unchanged")
	}
	p.UnmakeMove()
	if p.FEN() != fen || p.Fingerprint() != hash {
		t.Fatalf("null move not undone: %s", p.FEN())
	}
}

func TestCheckmateAndStalemate(t *testing.T) {
	mate := mustFEN(t, "R3k3/8/4K3/8/8/8/8/8 b - - 0 1")
	if !mate.IsCheckmate() || mate.IsStalemate() {
		t.Fatalf("expected checkmate")
	}
	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !stale.IsStalemate() || stale.IsCheckmate() {
		t.Fatalf("expected stalemate")
	}
}

func TestKnightShuffleRepetition(t *testing.T) {
	p := StartPosition()
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8")
	if got := p.RepetitionCount(); got != 2 {
		t.Fatalf("expected twofold after one shuffle, got %d", got)
	}
	if p.IsRepetitionDraw(0) != true {
		t.Fatalf("a repeat of the root inside the tree should be a draw")
	}
	if p.IsRepetitionDraw(p.Ply()) {
		t.Fatalf("twofold before the root is not a draw")
	}
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8")
	if got := p.RepetitionCount(); got != 3 {
		t.Fatalf("expected threefold, got %d", got)
	}
	if !p.IsRepetitionDraw(p.Ply()) {
		t.Fatalf("threefold repetition must be a draw")
	}
}

func TestRepetitionResetByPawnMove(t *testing.T) {
	p := StartPosition()
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8", "e2e4", "e7e5")
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8")
	if got := p.RepetitionCount(); got != 2 {
		t.Fatalf("expected twofold since the pawn moves, got %d", got)
	}
}

func TestEnPassantSquareIgnoredForRepetition(t *testing.T) {
	p := StartPosition()
	playMoves(t, p, "e2e4", "e7e5")
	after := p.Fingerprint()
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8")
	if p.Fingerprint() != after {
		t.Fatalf("fingerprint depends on an unusable en passant square")
	}
	playMoves(t, p, "g1f3", "b8c6", "f3g1", "c6b8")
	if got := p.RepetitionCount(); got != 3 {
		t.Fatalf("expected threefold, got %d", got)
	}

	// A usable en passant capture makes the position different.
	q := mustFEN(t, "4k3/3p4/8/4P3/8/8/8/4K3 b - - 0 1")
	playMoves(t, q, "d7d5")
	withEP := q.Fingerprint()
	playMoves(t, q, "e1d1", "e8d8", "d1e1", "d8e8")
	if q.Fingerprint() == withEP {
		t.Fatalf("usable en passant square lost from the fingerprint")
	}
	if got := q.RepetitionCount(); got != 1 {
		t.Fatalf("position with en passant rights counted as a repeat: %d", got)
	}
}

func TestRepeatedSince(t *testing.T) {
	p := StartPosition()
	playMoves(t, p, "g1f3", "b8c6")
	root := p.Ply()
	playMoves(t, p, "f3g1", "c6b8")
	if p.RepeatedSince(root) {
		t.Fatalf("start position was first seen before the root")
	}
	playMoves(t, p, "g1f3", "b8c6")
	if !p.RepeatedSince(root) {
		t.Fatalf("root position repeated inside the tree")
	}
}

func TestFiftyMoveCounter(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 w - - 99 80")
	playMoves(t, p, "a1a2")
	if got := p.FiftyMoveCounter(); got != FiftyMoveLimit {
		t.Fatalf("expected halfmove clock %d, got %d", FiftyMoveLimit, got)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/4KN2 w - - 0 1", true},
		{"4k3/8/8/8/8/8/8/4KB2 w - - 0 1", true},
		{"4kb2/8/8/8/8/8/8/2B1K3 w - - 0 1", true},
		{"4k1b1/8/8/8/8/8/8/2B1K3 w - - 0 1", false},
		{"4k3/8/8/8/8/8/8/3NKN2 w - - 0 1", false},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", false},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", false},
	}
	for _, tt := range tests {
		p := mustFEN(t, tt.fen)
		if got := p.IsInsufficientMaterial(); got != tt.want {
			t.Errorf("IsInsufficientMaterial(%s) = %v, want %v", tt.fen, got, tt.want)
		}
	}
}

func TestCapturedPiece(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	ep, err := p.ParseMove("e5d6")
	if err != nil {
		t.Fatalf("en passant not generated: %v", err)
	}
	if got := p.CapturedPiece(ep); got != Pawn {
		t.Fatalf("en passant should capture a pawn, got %v", got)
	}
	quiet, err := p.ParseMove("e5e6")
	if err != nil {
		t.Fatalf("push not generated: %v", err)
	}
	if got := p.CapturedPiece(quiet); got != NoPiece {
		t.Fatalf("push should capture nothing, got %v", got)
	}
}

func TestParseMoveIllegal(t *testing.T) {
	p := StartPosition()
	if _, err := p.ParseMove("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestMirror(t *testing.T) {
	p := mustFEN(t, "r3k2r/pp3ppp/8/3pP3/8/8/PPP2PPP/R3K2R w Kq d6 0 12")
	m, err := p.Mirror()
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if m.SideToMove() != Black {
		t.Fatalf("mirror should have black to move")
	}
	// e5 white pawn becomes an e4 black pawn
	if piece, color, ok := m.PieceAt(3*8 + 4); !ok || piece != Pawn || color != Black {
		t.Fatalf("expected black pawn on e4, got %v %v %v", piece, color, ok)
	}
	if len(m.LegalMoves()) != len(p.LegalMoves()) {
		t.Fatalf("mirror has %d moves, original %d", len(m.LegalMoves()), len(p.LegalMoves()))
	}
	back, err := m.Mirror()
	if err != nil {
		t.Fatalf("Mirror back: %v", err)
	}
	if back.EPD() != p.EPD() {
		t.Fatalf("double mirror = %s, want %s", back.EPD(), p.EPD())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := StartPosition()
	playMoves(t, p, "e2e4")
	c := p.Clone()
	playMoves(t, c, "e7e5", "g1f3")
	if p.Ply() != 1 || c.Ply() != 3 {
		t.Fatalf("unexpected plies: game %d clone %d", p.Ply(), c.Ply())
	}
	c.UnmakeMove()
	c.UnmakeMove()
	c.UnmakeMove()
	if c.Ply() != 1 || c.FEN() != p.FEN() {
		t.Fatalf("clone unwound past its own moves: %s", c.FEN())
	}
}

func TestEPDDropsUselessEnPassantSquare(t *testing.T) {
	epField := func(p *Position) string {
		fields := strings.Fields(p.EPD())
		if len(fields) != 4 {
			t.Fatalf("EPD %q does not have four fields", p.EPD())
		}
		return fields[3]
	}

	p := StartPosition()
	playMoves(t, p, "e2e4")
	if got := epField(p); got != "-" {
		t.Fatalf("en passant field %q, want -", got)
	}

	p = mustFEN(t, "4k3/8/8/8/3p4/8/4P3/4K3 w - - 0 1")
	playMoves(t, p, "e2e4")
	if got := epField(p); got != "e3" {
		t.Fatalf("en passant field %q, want e3", got)
	}
}
