package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"lukechampine.com/frand"

	"chess-search/position"
)

// Book supplies moves for known positions before any search is done.
type Book interface {
	Lookup(pos *position.Position) (position.Move, bool)
}

type bookMove struct {
	move   string
	weight int
}

// OpeningBook maps positions (FEN without clocks) to weighted candidate
// moves.
//
// Two CSV record shapes are accepted:
//
//	<fen>,<uci move>[,<weight>]
//	<name>,...,<move sequence from the start position>
//
// Move sequences are UCI moves, optionally numbered ("1.e2e4 e7e5 2.g1f3").
// Lines starting with '#' are comments.
type OpeningBook struct {
	entries map[string][]bookMove
}

var moveNumbers = regexp.MustCompile(`[0-9]+\.`)

func NewOpeningBook() *OpeningBook {
	return &OpeningBook{entries: make(map[string][]bookMove)}
}

// OpenOpeningBook loads a book from a file.
func OpenOpeningBook(path string) (*OpeningBook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadOpeningBook(file)
}

// LoadOpeningBook parses a CSV book. Every move is checked for legality.
func LoadOpeningBook(r io.Reader) (*OpeningBook, error) {
	book := NewOpeningBook()
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidBook, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected at least 2 fields", ErrInvalidBook, line)
		}
		if strings.Count(record[0], "/") == 7 {
			err = book.addEntry(record)
		} else {
			err = book.addLine(record[len(record)-1])
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidBook, line, err)
		}
	}
	return book, nil
}

func (b *OpeningBook) addEntry(record []string) error {
	pos, err := position.FromFEN(record[0])
	if err != nil {
		return err
	}
	weight := 1
	if len(record) > 2 {
		weight, err = strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil || weight <= 0 {
			return fmt.Errorf("weight %q", record[2])
		}
	}
	return b.Add(pos, record[1], weight)
}

func (b *OpeningBook) addLine(sequence string) error {
	pos := position.StartPosition()
	for _, token := range strings.Fields(moveNumbers.ReplaceAllString(sequence, " ")) {
		if err := b.Add(pos, token, 1); err != nil {
			return err
		}
		m, _ := pos.ParseMove(token)
		pos.MakeMove(m)
	}
	return nil
}

// Add records uci as a candidate in pos. Adding the same move again raises
// its weight.
func (b *OpeningBook) Add(pos *position.Position, uci string, weight int) error {
	m, err := pos.ParseMove(uci)
	if err != nil {
		return err
	}
	key := pos.EPD()
	uci = m.String()
	for i := range b.entries[key] {
		if b.entries[key][i].move == uci {
			b.entries[key][i].weight += weight
			return nil
		}
	}
	b.entries[key] = append(b.entries[key], bookMove{move: uci, weight: weight})
	return nil
}

// Len returns the number of positions in the book.
func (b *OpeningBook) Len() int {
	return len(b.entries)
}

// Lookup picks a weighted random candidate for pos.
func (b *OpeningBook) Lookup(pos *position.Position) (position.Move, bool) {
	candidates := b.entries[pos.EPD()]
	total := 0
	for _, c := range candidates {
		total += c.weight
	}
	if total == 0 {
		return position.NoMove, false
	}
	pick := frand.Intn(total)
	for _, c := range candidates {
		if pick < c.weight {
			m, err := pos.ParseMove(c.move)
			return m, err == nil
		}
		pick -= c.weight
	}
	return position.NoMove, false
}
