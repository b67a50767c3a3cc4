// Package eval holds the static evaluation used by the search: tapered
// material and piece-square scores with a few structural terms.
package eval

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"

	"chess-search/position"
)

const (
	// TotalPhase is the phase of a position with all minor and major pieces.
	TotalPhase = 24

	BishopPairMG int32 = 30
	BishopPairEG int32 = 50

	DoubledPawnMG int32 = 10
	DoubledPawnEG int32 = 20

	Tempo int32 = 10
)

const fileA uint64 = 0x0101010101010101

// Tapered blends middlegame and endgame scores by game phase. The zero value
// is ready to use.
type Tapered struct{}

// Evaluate scores p in centipawns from White's point of view.
func (Tapered) Evaluate(p *position.Position) int32 {
	var mg, eg [2]int32
	phase := 0

	for _, color := range [2]position.Color{position.White, position.Black} {
		bb := p.Bitboards(color)
		for piece, set := range pieceSets(&bb) {
			for set != 0 {
				sq := bits.TrailingZeros64(set)
				set &= set - 1

				idx := sq
				if color == position.White {
					idx ^= 56
				}
				mg[color] += MaterialMG[piece] + mgTables[piece][idx]
				eg[color] += MaterialEG[piece] + egTables[piece][idx]
				phase += phaseWeight[piece]
			}
		}

		if bits.OnesCount64(bb.Bishops) >= 2 {
			mg[color] += BishopPairMG
			eg[color] += BishopPairEG
		}
		doubled := doubledPawns(bb.Pawns)
		mg[color] -= DoubledPawnMG * doubled
		eg[color] -= DoubledPawnEG * doubled
	}

	if phase > TotalPhase {
		phase = TotalPhase
	}
	mgScore := mg[position.White] - mg[position.Black]
	egScore := eg[position.White] - eg[position.Black]
	score := (mgScore*int32(phase) + egScore*int32(TotalPhase-phase)) / TotalPhase

	if p.SideToMove() == position.White {
		score += Tempo
	} else {
		score -= Tempo
	}
	return score
}

// Phase returns the game phase of p, TotalPhase for the opening down to 0
// for bare kings and pawns.
func Phase(p *position.Position) int {
	phase := 0
	for _, color := range [2]position.Color{position.White, position.Black} {
		bb := p.Bitboards(color)
		phase += bits.OnesCount64(bb.Knights) * phaseWeight[position.Knight]
		phase += bits.OnesCount64(bb.Bishops) * phaseWeight[position.Bishop]
		phase += bits.OnesCount64(bb.Rooks) * phaseWeight[position.Rook]
		phase += bits.OnesCount64(bb.Queens) * phaseWeight[position.Queen]
	}
	if phase > TotalPhase {
		phase = TotalPhase
	}
	return phase
}

func pieceSets(bb *dragontoothmg.Bitboards) [7]uint64 {
	return [7]uint64{0, bb.Pawns, bb.Knights, bb.Bishops, bb.Rooks, bb.Queens, bb.Kings}
}

func doubledPawns(pawns uint64) int32 {
	var extra int32
	for file := 0; file < 8; file++ {
		if n := bits.OnesCount64(pawns & (fileA << file)); n > 1 {
			extra += int32(n - 1)
		}
	}
	return extra
}
