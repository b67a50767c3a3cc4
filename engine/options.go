package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Options holds the tunables of the searcher. Everything can be changed by
// name through Set, which is what the UCI setoption command uses.
type Options struct {
	Hash              int // transposition table size in megabytes
	NullMove          bool
	NullMoveMinDepth  int8
	LateMoveReduction bool
	CheckExtension    bool
	DeltaPruning      bool
	UseTT             bool
	AspirationWindow  int32 // centipawns, 0 disables
	Contempt          int32
	PollInterval      uint64 // nodes between stop checks
	QuiescenceMaxPly  int
	MoveOverhead      time.Duration
	OwnBook           bool
}

const (
	MinHash = 1
	MaxHash = 4096
)

func DefaultOptions() Options {
	return Options{
		Hash:              64,
		NullMove:          true,
		NullMoveMinDepth:  3,
		LateMoveReduction: true,
		CheckExtension:    true,
		DeltaPruning:      true,
		UseTT:             true,
		AspirationWindow:  35,
		Contempt:          0,
		PollInterval:      2048,
		QuiescenceMaxPly:  32,
		MoveOverhead:      StartTimeOverhead,
		OwnBook:           false,
	}
}

// Validate reports the first out-of-range field.
func (o Options) Validate() error {
	switch {
	case o.Hash < MinHash || o.Hash > MaxHash:
		return fmt.Errorf("%w: Hash %d outside [%d, %d]", ErrInvalidOptionValue, o.Hash, MinHash, MaxHash)
	case o.NullMoveMinDepth < 1 || o.NullMoveMinDepth > 20:
		return fmt.Errorf("%w: NullMoveMinDepth %d", ErrInvalidOptionValue, o.NullMoveMinDepth)
	case o.AspirationWindow < 0 || o.AspirationWindow > 1000:
		return fmt.Errorf("%w: AspirationWindow %d", ErrInvalidOptionValue, o.AspirationWindow)
	case Abs(o.Contempt) > 200:
		return fmt.Errorf("%w: Contempt %d", ErrInvalidOptionValue, o.Contempt)
	case o.PollInterval < 1 || o.PollInterval > 1<<20:
		return fmt.Errorf("%w: PollInterval %d", ErrInvalidOptionValue, o.PollInterval)
	case o.QuiescenceMaxPly < 1 || o.QuiescenceMaxPly > MaxPly:
		return fmt.Errorf("%w: QuiescenceMaxPly %d", ErrInvalidOptionValue, o.QuiescenceMaxPly)
	case o.MoveOverhead < 0 || o.MoveOverhead > 5*time.Second:
		return fmt.Errorf("%w: MoveOverhead %s", ErrInvalidOptionValue, o.MoveOverhead)
	}
	return nil
}

// Set changes one option by its UCI name. Names are matched case
// insensitively and spaces are ignored. o is left untouched on error.
func (o *Options) Set(name, value string) error {
	next := *o
	value = strings.TrimSpace(value)
	var err error
	switch strings.ToLower(strings.ReplaceAll(name, " ", "")) {
	case "hash":
		next.Hash, err = strconv.Atoi(value)
	case "nullmove":
		next.NullMove, err = strconv.ParseBool(value)
	case "nullmovemindepth":
		var d int64
		d, err = strconv.ParseInt(value, 10, 8)
		next.NullMoveMinDepth = int8(d)
	case "latemovereduction":
		next.LateMoveReduction, err = strconv.ParseBool(value)
	case "checkextension":
		next.CheckExtension, err = strconv.ParseBool(value)
	case "deltapruning":
		next.DeltaPruning, err = strconv.ParseBool(value)
	case "usett":
		next.UseTT, err = strconv.ParseBool(value)
	case "aspirationwindow":
		var w int64
		w, err = strconv.ParseInt(value, 10, 32)
		next.AspirationWindow = int32(w)
	case "contempt":
		var c int64
		c, err = strconv.ParseInt(value, 10, 32)
		next.Contempt = int32(c)
	case "pollinterval":
		next.PollInterval, err = strconv.ParseUint(value, 10, 64)
	case "quiescencemaxply":
		next.QuiescenceMaxPly, err = strconv.Atoi(value)
	case "moveoverhead":
		var ms int
		ms, err = strconv.Atoi(value)
		next.MoveOverhead = time.Duration(ms) * time.Millisecond
	case "ownbook":
		next.OwnBook, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidOptionValue, name, value, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*o = next
	return nil
}

// OptionSpec describes one option for the UCI "uci" reply.
type OptionSpec struct {
	Name    string
	Type    string // "spin" or "check"
	Default string
	Min     int
	Max     int
}

// OptionSpecs lists the settable options with their defaults.
func OptionSpecs() []OptionSpec {
	d := DefaultOptions()
	return []OptionSpec{
		{Name: "Hash", Type: "spin", Default: strconv.Itoa(d.Hash), Min: MinHash, Max: MaxHash},
		{Name: "NullMove", Type: "check", Default: strconv.FormatBool(d.NullMove)},
		{Name: "NullMoveMinDepth", Type: "spin", Default: strconv.Itoa(int(d.NullMoveMinDepth)), Min: 1, Max: 20},
		{Name: "LateMoveReduction", Type: "check", Default: strconv.FormatBool(d.LateMoveReduction)},
		{Name: "CheckExtension", Type: "check", Default: strconv.FormatBool(d.CheckExtension)},
		{Name: "DeltaPruning", Type: "check", Default: strconv.FormatBool(d.DeltaPruning)},
		{Name: "UseTT", Type: "check", Default: strconv.FormatBool(d.UseTT)},
		{Name: "AspirationWindow", Type: "spin", Default: strconv.Itoa(int(d.AspirationWindow)), Min: 0, Max: 1000},
		{Name: "Contempt", Type: "spin", Default: strconv.Itoa(int(d.Contempt)), Min: -200, Max: 200},
		{Name: "PollInterval", Type: "spin", Default: strconv.FormatUint(d.PollInterval, 10), Min: 1, Max: 1 << 20},
		{Name: "QuiescenceMaxPly", Type: "spin", Default: strconv.Itoa(d.QuiescenceMaxPly), Min: 1, Max: MaxPly},
		{Name: "MoveOverhead", Type: "spin", Default: strconv.Itoa(int(d.MoveOverhead / time.Millisecond)), Min: 0, Max: 5000},
		{Name: "OwnBook", Type: "check", Default: strconv.FormatBool(d.OwnBook)},
	}
}
