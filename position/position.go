// Package position wraps the dragontoothmg move generator with the undo
// stack, draw bookkeeping and validation the search relies on.
package position

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

type (
	Move      = dragontoothmg.Move
	Piece     = dragontoothmg.Piece
	bitboards = dragontoothmg.Bitboards
)

// Color of a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing colour.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

const NoMove Move = 0

const (
	NoPiece Piece = dragontoothmg.Nothing
	Pawn    Piece = dragontoothmg.Pawn
	Knight  Piece = dragontoothmg.Knight
	Bishop  Piece = dragontoothmg.Bishop
	Rook    Piece = dragontoothmg.Rook
	Queen   Piece = dragontoothmg.Queen
	King    Piece = dragontoothmg.King
)

// Startpos is the FEN of the initial position.
const Startpos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const (
	darkSquares  uint64 = 0xAA55AA55AA55AA55
	lightSquares uint64 = ^darkSquares
	backRanks    uint64 = 0xFF000000000000FF
)

type undo struct {
	unapply func()
	saved   dragontoothmg.Board
	null    bool
}

// Position is a board plus the history needed for repetition detection and
// an undo stack for make/unmake. It is not safe for concurrent use.
type Position struct {
	board   dragontoothmg.Board
	undos   []undo
	history []State
}

// StartPosition returns the standard initial position.
func StartPosition() *Position {
	p, err := FromFEN(Startpos)
	if err != nil {
		panic(err)
	}
	return p
}

// FromFEN validates fen and builds a position from it. Four-field FENs
// (no clocks) are accepted.
func FromFEN(fen string) (pos *Position, err error) {
	fields, err := normalizeFEN(fen)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			pos, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	p := &Position{board: dragontoothmg.ParseFen(strings.Join(fields, " "))}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	p.pushState(squareIndex(fields[3]))
	return p, nil
}

// Validate checks the board for states the move generator cannot handle:
// missing or extra kings, pawns on the back ranks, overlapping pieces and a
// side not to move that is in check.
func (p *Position) Validate() error {
	w, b := p.board.White, p.board.Black
	if bits.OnesCount64(w.Kings) != 1 || bits.OnesCount64(b.Kings) != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidPosition)
	}
	if (w.Pawns|b.Pawns)&backRanks != 0 {
		return fmt.Errorf("%w: pawn on first or last rank", ErrInvalidPosition)
	}
	if w.All&b.All != 0 {
		return fmt.Errorf("%w: overlapping pieces", ErrInvalidPosition)
	}
	if p.opponentInCheck() {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}
	return nil
}

func (p *Position) opponentInCheck() bool {
	fields := strings.Fields(p.board.ToFen())
	if len(fields) < 4 {
		return false
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	flipped := dragontoothmg.ParseFen(strings.Join(fields, " "))
	return flipped.OurKingInCheck()
}

// Clone copies the board and history. The clone has an empty undo stack, so
// it cannot unmake moves played before it was taken.
func (p *Position) Clone() *Position {
	c := &Position{board: p.board}
	c.history = make([]State, len(p.history), len(p.history)+MaxGameHint)
	copy(c.history, p.history)
	return c
}

// MaxGameHint is the spare history capacity reserved by Clone.
const MaxGameHint = 256

// FEN returns the board in Forsyth-Edwards notation.
func (p *Position) FEN() string {
	return p.board.ToFen()
}

// EPD returns the first four FEN fields, which identify a position without
// its clocks. The en passant square is only kept when the capture is legal.
func (p *Position) EPD() string {
	fields := strings.Fields(p.board.ToFen())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 {
		if sq := squareIndex(fields[3]); sq != noSquare && !p.canCaptureEnPassant(uint8(sq)) {
			fields[3] = "-"
		}
	}
	return strings.Join(fields, " ")
}

const noSquare = -1

// squareIndex converts an algebraic square such as "e3" to 0..63, or
// noSquare.
func squareIndex(name string) int {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return noSquare
	}
	return int(name[1]-'1')*8 + int(name[0]-'a')
}

// canCaptureEnPassant reports whether the side to move has a legal en
// passant capture onto sq.
func (p *Position) canCaptureEnPassant(sq uint8) bool {
	us := p.Bitboards(p.SideToMove())
	var attackers uint64
	if file := sq % 8; p.board.Wtomove {
		if sq >= 8 {
			if file > 0 {
				attackers |= uint64(1) << (sq - 9)
			}
			if file < 7 {
				attackers |= uint64(1) << (sq - 7)
			}
		}
	} else if sq < 56 {
		if file > 0 {
			attackers |= uint64(1) << (sq + 7)
		}
		if file < 7 {
			attackers |= uint64(1) << (sq + 9)
		}
	}
	if us.Pawns&attackers == 0 {
		return false
	}
	moves := p.LegalMoves()
	for i := range moves {
		m := &moves[i]
		if m.To() == sq && m.From()%8 != m.To()%8 && us.Pawns&(uint64(1)<<m.From()) != 0 {
			return true
		}
	}
	return false
}

// hashWithoutEnPassant rebuilds the board with its en passant square
// cleared and returns that hash.
func (p *Position) hashWithoutEnPassant() uint64 {
	fields := strings.Fields(p.board.ToFen())
	if len(fields) < 4 {
		return p.board.Hash()
	}
	fields[3] = "-"
	stripped := dragontoothmg.ParseFen(strings.Join(fields, " "))
	return stripped.Hash()
}

// Fingerprint returns the zobrist hash of the position. An en passant
// square that no pawn can use does not change it.
func (p *Position) Fingerprint() uint64 {
	return p.history[len(p.history)-1].Hash
}

// SideToMove returns the colour to move.
func (p *Position) SideToMove() Color {
	if p.board.Wtomove {
		return White
	}
	return Black
}

// Bitboards returns the piece sets of one side.
func (p *Position) Bitboards(c Color) dragontoothmg.Bitboards {
	if c == White {
		return p.board.White
	}
	return p.board.Black
}

// LegalMoves generates every legal move.
func (p *Position) LegalMoves() []Move {
	return p.board.GenerateLegalMoves()
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.board.OurKingInCheck()
}

func (p *Position) IsCheckmate() bool {
	return p.InCheck() && len(p.LegalMoves()) == 0
}

func (p *Position) IsStalemate() bool {
	return !p.InCheck() && len(p.LegalMoves()) == 0
}

// IsInsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or bishops that all share one colour.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := p.board.White, p.board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	if bits.OnesCount64(w.Knights|w.Bishops|b.Knights|b.Bishops) <= 1 {
		return true
	}
	if w.Knights|b.Knights != 0 {
		return false
	}
	bishops := w.Bishops | b.Bishops
	return bishops&lightSquares == 0 || bishops&darkSquares == 0
}

// HasNonPawnMaterial reports whether the side to move owns a piece other
// than pawns and its king.
func (p *Position) HasNonPawnMaterial() bool {
	bb := p.Bitboards(p.SideToMove())
	return bb.Knights|bb.Bishops|bb.Rooks|bb.Queens != 0
}

// PieceAt returns the piece on sq and its colour. ok is false for empty
// squares.
func (p *Position) PieceAt(sq uint8) (piece Piece, color Color, ok bool) {
	mask := uint64(1) << sq
	switch {
	case p.board.White.All&mask != 0:
		return pieceOn(&p.board.White, mask), White, true
	case p.board.Black.All&mask != 0:
		return pieceOn(&p.board.Black, mask), Black, true
	}
	return NoPiece, White, false
}

func pieceOn(bb *dragontoothmg.Bitboards, mask uint64) Piece {
	switch {
	case bb.Pawns&mask != 0:
		return Pawn
	case bb.Knights&mask != 0:
		return Knight
	case bb.Bishops&mask != 0:
		return Bishop
	case bb.Rooks&mask != 0:
		return Rook
	case bb.Queens&mask != 0:
		return Queen
	case bb.Kings&mask != 0:
		return King
	}
	return NoPiece
}

// MovingPiece returns the type of the piece m moves.
func (p *Position) MovingPiece(m Move) Piece {
	piece, _, _ := p.PieceAt(m.From())
	return piece
}

// CapturedPiece returns the type of the piece m captures, NoPiece for quiet
// moves. En passant captures report Pawn.
func (p *Position) CapturedPiece(m Move) Piece {
	them := &p.board.Black
	if !p.board.Wtomove {
		them = &p.board.White
	}
	to := m.To()
	if victim := pieceOn(them, uint64(1)<<to); victim != NoPiece {
		return victim
	}
	from := m.From()
	if p.MovingPiece(m) == Pawn && from%8 != to%8 {
		return Pawn
	}
	return NoPiece
}

// MakeMove plays a legal move.
func (p *Position) MakeMove(m Move) {
	ep := noSquare
	if from, to := int(m.From()), int(m.To()); (to-from == 16 || from-to == 16) && p.MovingPiece(m) == Pawn {
		ep = (from + to) / 2
	}
	unapply := p.board.Apply(m)
	p.undos = append(p.undos, undo{unapply: unapply})
	p.pushState(ep)
}

// MakeNullMove passes the turn. En passant rights are dropped and the
// halfmove clock restarts so repetition scans never cross the null move.
func (p *Position) MakeNullMove() {
	saved := p.board
	fields := strings.Fields(p.board.ToFen())
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	if len(fields) > 4 {
		fields[4] = "0"
	}
	p.board = dragontoothmg.ParseFen(strings.Join(fields, " "))
	p.undos = append(p.undos, undo{saved: saved, null: true})
	p.pushState(noSquare)
}

// UnmakeMove takes back the last move or null move. It is a no-op when the
// undo stack is empty.
func (p *Position) UnmakeMove() {
	if len(p.undos) == 0 {
		return
	}
	last := p.undos[len(p.undos)-1]
	p.undos = p.undos[:len(p.undos)-1]
	if last.null {
		p.board = last.saved
	} else {
		last.unapply()
	}
	p.popState()
}

// ParseMove converts a UCI move string into the matching legal move.
func (p *Position) ParseMove(uci string) (Move, error) {
	want := strings.ToLower(strings.TrimSpace(uci))
	for _, m := range p.LegalMoves() {
		if m.String() == want {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %q in %s", ErrIllegalMove, uci, p.FEN())
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove()
	}
	return nodes
}
