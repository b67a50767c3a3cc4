package engine

import (
	"github.com/dylhunn/dragontoothmg"

	"chess-search/position"
)

var SeePieceValue = [7]int32{
	position.King:   5000,
	position.Pawn:   100,
	position.Knight: 300,
	position.Bishop: 300,
	position.Rook:   500,
	position.Queen:  900}

var (
	KingMoves   [64]uint64
	KnightMasks [64]uint64
	// pawnAttacks[c][sq] are the squares a pawn of colour c on sq attacks.
	pawnAttacks [2][64]uint64
)

func init() {
	initAttackTables()
}

func initAttackTables() {
	for sq := 0; sq < 64; sq++ {
		rank, file := sq/8, sq%8
		for _, d := range [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			KnightMasks[sq] |= squareBB(rank+d[0], file+d[1])
		}
		for _, d := range [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}} {
			KingMoves[sq] |= squareBB(rank+d[0], file+d[1])
		}
		pawnAttacks[position.White][sq] = squareBB(rank+1, file-1) | squareBB(rank+1, file+1)
		pawnAttacks[position.Black][sq] = squareBB(rank-1, file-1) | squareBB(rank-1, file+1)
	}
}

func squareBB(rank, file int) uint64 {
	if rank < 0 || rank > 7 || file < 0 || file > 7 {
		return 0
	}
	return 1 << (rank*8 + file)
}

// attackersTo returns every piece of either colour attacking sq through occ.
func attackersTo(sq uint8, occ uint64, white, black *dragontoothmg.Bitboards) uint64 {
	diagonal := white.Bishops | white.Queens | black.Bishops | black.Queens
	orthogonal := white.Rooks | white.Queens | black.Rooks | black.Queens

	attackers := KnightMasks[sq] & (white.Knights | black.Knights)
	attackers |= KingMoves[sq] & (white.Kings | black.Kings)
	attackers |= pawnAttacks[position.Black][sq] & white.Pawns
	attackers |= pawnAttacks[position.White][sq] & black.Pawns
	attackers |= dragontoothmg.CalculateBishopMoveBitboard(sq, occ) & diagonal
	attackers |= dragontoothmg.CalculateRookMoveBitboard(sq, occ) & orthogonal
	return attackers & occ
}

func minAttacker(attadef uint64, bb *dragontoothmg.Bitboards) (uint64, position.Piece) {
	for _, candidate := range [6]struct {
		set   uint64
		piece position.Piece
	}{
		{bb.Pawns, position.Pawn},
		{bb.Knights, position.Knight},
		{bb.Bishops, position.Bishop},
		{bb.Rooks, position.Rook},
		{bb.Queens, position.Queen},
		{bb.Kings, position.King},
	} {
		if subset := attadef & candidate.set; subset != 0 {
			return subset & -subset, candidate.piece
		}
	}
	return 0, position.NoPiece
}

// see runs the static exchange on the target square of move and returns the
// material balance for the side making it. Sliders behind a capturer join
// in as the occupancy shrinks.
func see(p *position.Position, move position.Move) int32 {
	var gain [32]int32
	depth := 0

	white, black := p.Bitboards(position.White), p.Bitboards(position.Black)
	from, to := move.From(), move.To()
	occ := white.All | black.All

	target := p.CapturedPiece(move)
	attacker := p.MovingPiece(move)
	gain[0] = SeePieceValue[target]
	if promote := move.Promote(); promote != position.NoPiece {
		gain[0] += SeePieceValue[promote] - SeePieceValue[position.Pawn]
		attacker = promote
	}
	// En passant: the captured pawn is not on the target square
	if target == position.Pawn && occ&(uint64(1)<<to) == 0 {
		if p.SideToMove() == position.White {
			occ &^= uint64(1) << (to - 8)
		} else {
			occ &^= uint64(1) << (to + 8)
		}
	}

	side := p.SideToMove().Other()
	fromBB := uint64(1) << from
	for {
		depth++
		gain[depth] = SeePieceValue[attacker] - gain[depth-1]
		// If we're in a losing position after the last trade, we break
		if max(-gain[depth-1], gain[depth]) < 0 || depth == len(gain)-1 {
			break
		}
		occ &^= fromBB
		us := &white
		if side == position.Black {
			us = &black
		}
		fromBB, attacker = minAttacker(attackersTo(to, occ, &white, &black)&us.All, us)
		if fromBB == 0 {
			break
		}
		side = side.Other()
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}
