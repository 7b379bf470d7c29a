package netsimplex

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
)

// DefaultSearchSize is the leave-edge search window used when
// Options.SearchSize is not positive.
const DefaultSearchSize = 30

// BalanceMode selects the post-optimality pass applied to the ranks.
type BalanceMode int

const (
	// BalanceNone normalizes ranks so the smallest rank of a non-virtual
	// node is zero.
	BalanceNone BalanceMode = iota
	// BalanceTopBottom moves cost-indifferent nodes to the least populated
	// rank of their feasible window.
	BalanceTopBottom
	// BalanceLeftRight centers the subtrees hanging off zero cut-value tree
	// edges within their slack. Ranks are not normalized.
	BalanceLeftRight
)

var balanceNames = map[BalanceMode]string{
	BalanceNone:      "none",
	BalanceTopBottom: "top-bottom",
	BalanceLeftRight: "left-right",
}

// String returns the flag spelling of the mode.
func (m BalanceMode) String() string {
	if s, ok := balanceNames[m]; ok {
		return s
	}
	return fmt.Sprintf("BalanceMode(%d)", int(m))
}

// ParseBalanceMode parses "none", "top-bottom" (or "tb") and "left-right"
// (or "lr").
func ParseBalanceMode(s string) (BalanceMode, error) {
	switch s {
	case "", "none":
		return BalanceNone, nil
	case "top-bottom", "tb":
		return BalanceTopBottom, nil
	case "left-right", "lr":
		return BalanceLeftRight, nil
	}
	return BalanceNone, fmt.Errorf("balance mode %q: %w", s, ErrInvalidOption)
}

// Adjust refines BalanceTopBottom.
type Adjust int

const (
	// AdjustNone spreads cost-indifferent nodes over the least populated ranks.
	AdjustNone Adjust = iota
	// AdjustMin pulls sources to rank 0 and cost-indifferent nodes to the
	// lowest rank of their window.
	AdjustMin
	// AdjustMax pushes sinks to the maximum rank and cost-indifferent nodes
	// to the highest rank of their window.
	AdjustMax
)

// ParseAdjust parses "", "min" and "max".
func ParseAdjust(s string) (Adjust, error) {
	switch s {
	case "", "none":
		return AdjustNone, nil
	case "min":
		return AdjustMin, nil
	case "max":
		return AdjustMax, nil
	}
	return AdjustNone, fmt.Errorf("adjust %q: %w", s, ErrInvalidOption)
}

// String returns the flag spelling of the adjust mode.
func (a Adjust) String() string {
	switch a {
	case AdjustMin:
		return "min"
	case AdjustMax:
		return "max"
	}
	return "none"
}

// Options configures a call to [Rank]. The zero value balances nothing,
// performs no pivots and uses DefaultSearchSize; start from [DefaultOptions]
// for a fully optimizing run.
type Options struct {
	// Balance selects the post pass.
	Balance BalanceMode
	// Adjust refines BalanceTopBottom.
	Adjust Adjust
	// MaxIterations caps the number of pivots. Zero builds the feasible
	// tight tree and stops.
	MaxIterations int
	// SearchSize is the number of negative cut-value tree edges examined
	// when choosing the leaving edge.
	SearchSize int
	// Logger receives progress records. Nil disables logging.
	Logger *log.Logger
}

// DefaultOptions returns options that run the simplex to convergence with
// the default search window and no balancing.
func DefaultOptions() Options {
	return Options{
		Balance:       BalanceNone,
		MaxIterations: math.MaxInt32,
		SearchSize:    DefaultSearchSize,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxIterations < 0 {
		return fmt.Errorf("max iterations %d: %w", o.MaxIterations, ErrInvalidOption)
	}
	if _, ok := balanceNames[o.Balance]; !ok {
		return fmt.Errorf("%s: %w", o.Balance, ErrInvalidOption)
	}
	if o.Adjust < AdjustNone || o.Adjust > AdjustMax {
		return fmt.Errorf("adjust %d: %w", int(o.Adjust), ErrInvalidOption)
	}
	return nil
}

func (o Options) searchSize() int {
	if o.SearchSize > 0 {
		return o.SearchSize
	}
	return DefaultSearchSize
}

var (
	// ErrInvalidOption is returned for out-of-range options.
	ErrInvalidOption = errors.New("invalid option")

	// ErrDisconnected is returned when no spanning tree exists because the
	// graph has more than one connected component.
	ErrDisconnected = errors.New("graph is not connected")

	// ErrInternal marks a failed consistency check: a precondition violation
	// such as a cycle, or broken tree bookkeeping.
	ErrInternal = errors.New("network simplex consistency failure")

	// ErrCycle is returned when the initial ranking cannot order every node.
	// It matches ErrInternal.
	ErrCycle = fmt.Errorf("%w: graph has a cycle", ErrInternal)
)

// Status codes mirroring the classic rank() contract.
const (
	StatusOK           = 0
	StatusDisconnected = 1
	StatusInternal     = 2
)

// StatusOf maps an error returned by [Rank] to its status code.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrDisconnected):
		return StatusDisconnected
	default:
		return StatusInternal
	}
}

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
