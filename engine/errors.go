package engine

import "errors"

var (
	ErrInvalidPosition    = errors.New("engine: invalid position")
	ErrSearchInProgress   = errors.New("engine: search in progress")
	ErrUnknownOption      = errors.New("engine: unknown option")
	ErrInvalidOptionValue = errors.New("engine: invalid option value")
	ErrInvalidBook        = errors.New("engine: invalid opening book")
)
