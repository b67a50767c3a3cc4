package engine

import "github.com/rs/zerolog"

// CutStatistics collects counts for each pruning/cutoff mechanism.
type CutStatistics struct {
	TTCutoffs        uint64
	NullMoveCutoffs  uint64
	BetaCutoffs      uint64
	Researches       uint64
	QStandPatCutoffs uint64
	QBetaCutoffs     uint64
	DeltaPrunes      uint64
	SeePrunes        uint64
}

// MarshalZerologObject lets the statistics be logged with Object.
func (c CutStatistics) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("tt", c.TTCutoffs).
		Uint64("null-move", c.NullMoveCutoffs).
		Uint64("beta", c.BetaCutoffs).
		Uint64("researches", c.Researches).
		Uint64("q-stand-pat", c.QStandPatCutoffs).
		Uint64("q-beta", c.QBetaCutoffs).
		Uint64("delta", c.DeltaPrunes).
		Uint64("see", c.SeePrunes)
}
