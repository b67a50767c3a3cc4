package position

// FiftyMoveLimit is the halfmove clock value at which the game is drawn.
const FiftyMoveLimit = 100

// boardKey identifies a board exactly. Two positions with equal zobrist
// fingerprints are only treated as repetitions when their keys match too.
type boardKey struct {
	white, black bitboards
	wtomove      bool
}

// State captures the information we need to reason about repetitions and draws.
type State struct {
	Hash   uint64
	Key    boardKey
	Rule50 int
}

// pushState records the current board. ep is the en passant target square
// set by the last move, or noSquare. The recorded hash leaves out an en
// passant square no pawn can use, so the position still matches its later
// occurrences.
func (p *Position) pushState(ep int) {
	hash := p.board.Hash()
	if ep != noSquare && !p.canCaptureEnPassant(uint8(ep)) {
		hash = p.hashWithoutEnPassant()
	}
	p.history = append(p.history, State{
		Hash:   hash,
		Key:    boardKey{white: p.board.White, black: p.board.Black, wtomove: p.board.Wtomove},
		Rule50: int(p.board.Halfmoveclock),
	})
}

func (p *Position) popState() {
	if len(p.history) <= 1 {
		return
	}
	p.history = p.history[:len(p.history)-1]
}

// repetitionInfo counts the earlier occurrences of the current position
// inside the reversible part of the history and returns the index of the
// first of them, or -1.
func (p *Position) repetitionInfo() (count int, firstIdx int) {
	firstIdx = -1
	if len(p.history) <= 1 {
		return 0, firstIdx
	}
	curr := p.history[len(p.history)-1]
	start := len(p.history) - 1 - curr.Rule50
	if start < 0 {
		start = 0
	}
	for i := start; i <= len(p.history)-2; i++ {
		if p.history[i].Hash == curr.Hash && p.history[i].Key == curr.Key {
			count++
			if firstIdx == -1 {
				firstIdx = i
			}
		}
	}
	return count, firstIdx
}

// RepetitionCount returns how many times the current position has occurred
// since the last irreversible move, the current occurrence included.
func (p *Position) RepetitionCount() int {
	count, _ := p.repetitionInfo()
	return count + 1
}

// RepeatedSince reports whether every earlier occurrence of the current
// position lies at or after history index rootIndex, and there is at least
// one. Searches use it to score a repeat inside their own tree as a draw.
func (p *Position) RepeatedSince(rootIndex int) bool {
	count, firstIdx := p.repetitionInfo()
	return count >= 1 && firstIdx >= rootIndex
}

// IsRepetitionDraw combines threefold repetition with the in-tree twofold
// rule relative to rootIndex.
func (p *Position) IsRepetitionDraw(rootIndex int) bool {
	count, firstIdx := p.repetitionInfo()
	if count >= 2 {
		return true
	}
	return count >= 1 && firstIdx >= rootIndex
}

// FiftyMoveCounter returns the halfmove clock.
func (p *Position) FiftyMoveCounter() int {
	return int(p.board.Halfmoveclock)
}

// Ply returns the index of the current position in the history. The position
// a FEN was loaded from has index 0.
func (p *Position) Ply() int {
	return len(p.history) - 1
}
