package position

import "errors"

var (
	// ErrInvalidFEN is returned for FEN strings that are malformed or describe
	// an impossible board.
	ErrInvalidFEN = errors.New("position: invalid fen")
	// ErrIllegalMove is returned when a UCI move string does not name a legal
	// move in the current position.
	ErrIllegalMove = errors.New("position: illegal move")
	// ErrInvalidPosition is returned by Validate.
	ErrInvalidPosition = errors.New("position: invalid position")
)
