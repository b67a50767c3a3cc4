package engine

// Late move reductions indexed by [depth][moves searched].
var LMR = [MaxPly][64]int8{}

func init() {
	InitLMRTable()
}

func InitLMRTable() {
	for d := 1; d < len(LMR); d++ {
		for m := 1; m < len(LMR[d]); m++ {
			r := 1 + d/8 + m/16 // gentle growth with depth & lateness
			if r > d-2 {
				r = d - 2
			} // keep depth-1-r >= 1
			if r < 0 {
				r = 0
			}
			LMR[d][m] = int8(r)
		}
	}
}
