package position

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// normalizeFEN checks fen field by field and returns six fields, filling in
// missing clocks. dragontoothmg trusts its input, so everything it would
// choke on is rejected here.
func normalizeFEN(fen string) ([]string, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 5:
		fields = append(fields, "1")
	case 6:
	default:
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	squares, err := parsePlacement(fields[0])
	if err != nil {
		return nil, err
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}
	if err := checkCastling(fields[2], &squares); err != nil {
		return nil, err
	}
	if err := checkEnPassant(fields[3], fields[1]); err != nil {
		return nil, err
	}

	halfmove, err := strconv.Atoi(fields[4])
	if err != nil || halfmove < 0 || halfmove > 255 {
		return nil, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
	}
	fullmove, err := strconv.Atoi(fields[5])
	if err != nil || fullmove < 0 || fullmove > 65535 {
		return nil, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
	}
	if fullmove == 0 {
		fields[5] = "1"
	}
	return fields, nil
}

// parsePlacement returns the piece letters indexed by square, a1 = 0.
func parsePlacement(placement string) ([64]byte, error) {
	var squares [64]byte
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return squares, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := [2]int{}
	for i, rank := range ranks {
		r := 7 - i
		file := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				if file > 7 {
					return squares, fmt.Errorf("%w: rank %d too long", ErrInvalidFEN, r+1)
				}
				if (c == 'p' || c == 'P') && (r == 0 || r == 7) {
					return squares, fmt.Errorf("%w: pawn on rank %d", ErrInvalidFEN, r+1)
				}
				switch c {
				case 'K':
					kings[White]++
				case 'k':
					kings[Black]++
				}
				squares[r*8+file] = byte(c)
				file++
			default:
				return squares, fmt.Errorf("%w: unexpected %q in placement", ErrInvalidFEN, c)
			}
		}
		if file != 8 {
			return squares, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, r+1, file)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return squares, fmt.Errorf("%w: need one king per side", ErrInvalidFEN)
	}
	return squares, nil
}

func checkCastling(castling string, squares *[64]byte) error {
	if castling == "-" {
		return nil
	}
	type right struct{ king, rook int }
	rights := map[rune]right{
		'K': {4, 7},
		'Q': {4, 0},
		'k': {60, 63},
		'q': {60, 56},
	}
	seen := map[rune]bool{}
	for _, c := range castling {
		r, ok := rights[c]
		if !ok || seen[c] {
			return fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, castling)
		}
		seen[c] = true
		king, rook := byte('K'), byte('R')
		if unicode.IsLower(c) {
			king, rook = 'k', 'r'
		}
		if squares[r.king] != king || squares[r.rook] != rook {
			return fmt.Errorf("%w: castling right %c without king and rook at home", ErrInvalidFEN, c)
		}
	}
	return nil
}

func checkEnPassant(ep, side string) error {
	if ep == "-" {
		return nil
	}
	if len(ep) != 2 || ep[0] < 'a' || ep[0] > 'h' {
		return fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, ep)
	}
	want := byte('6')
	if side == "b" {
		want = '3'
	}
	if ep[1] != want {
		return fmt.Errorf("%w: en passant square %q with %s to move", ErrInvalidFEN, ep, side)
	}
	return nil
}

// Mirror returns the colour-flipped position: ranks reversed, piece colours
// and side to move swapped.
func (p *Position) Mirror() (*Position, error) {
	fields := strings.Fields(p.board.ToFen())
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFEN, p.board.ToFen())
	}

	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	for i := range ranks {
		ranks[i] = swapCase(ranks[i])
	}
	fields[0] = strings.Join(ranks, "/")

	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}

	if fields[2] != "-" {
		swapped := swapCase(fields[2])
		var ordered strings.Builder
		for _, c := range "KQkq" {
			if strings.ContainsRune(swapped, c) {
				ordered.WriteRune(c)
			}
		}
		fields[2] = ordered.String()
	}

	if ep := fields[3]; ep != "-" && len(ep) == 2 {
		rank := byte('3')
		if ep[1] == '3' {
			rank = '6'
		}
		fields[3] = string([]byte{ep[0], rank})
	}
	return FromFEN(strings.Join(fields, " "))
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, s)
}
