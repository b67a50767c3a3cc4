package engine

import "fmt"

const MaxPly = 128

// Scores are centipawns from the side to move. Mate scores count plies from
// the root, so negating a score flips it to the other side without touching
// the distance.
const (
	MaxScore  int32 = 32500
	MateScore int32 = 32000
	Checkmate int32 = MateScore - MaxPly
	MaxEval   int32 = 20000
	DrawScore int32 = 0
)

// MatedIn is the score of the side to move when it is checkmated at ply.
func MatedIn(ply int) int32 {
	return -MateScore + int32(ply)
}

// MateIn is the score of the side to move when it mates at ply.
func MateIn(ply int) int32 {
	return MateScore - int32(ply)
}

func IsMateScore(score int32) bool {
	return score >= Checkmate || score <= -Checkmate
}

// ClampEval keeps static evaluations out of the mate band.
func ClampEval(score int32) int32 {
	return Clamp(score, -MaxEval, MaxEval)
}

// scoreToTT converts a root-relative mate score into one relative to the
// node at ply, which is what the table stores.
func scoreToTT(score int32, ply int) int32 {
	switch {
	case score >= Checkmate:
		return score + int32(ply)
	case score <= -Checkmate:
		return score - int32(ply)
	}
	return score
}

func scoreFromTT(score int32, ply int) int32 {
	switch {
	case score >= Checkmate:
		return score - int32(ply)
	case score <= -Checkmate:
		return score + int32(ply)
	}
	return score
}

// MateDistance converts a mate score into moves to mate, negative when the
// side to move is getting mated. ok is false for ordinary scores.
func MateDistance(score int32) (moves int, ok bool) {
	switch {
	case score >= Checkmate:
		plies := int(MateScore - score)
		return (plies + 1) / 2, true
	case score <= -Checkmate:
		plies := int(MateScore + score)
		return -((plies + 1) / 2), true
	}
	return 0, false
}

// FormatScore renders a score the way UCI expects it: "cp N" or "mate N".
func FormatScore(score int32) string {
	if moves, ok := MateDistance(score); ok {
		return fmt.Sprintf("mate %d", moves)
	}
	return fmt.Sprintf("cp %d", score)
}
