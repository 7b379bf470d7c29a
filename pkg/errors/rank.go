package errors

import (
	"errors"

	"github.com/matzehuels/layerank/pkg/dag"
	"github.com/matzehuels/layerank/pkg/netsimplex"
)

// FromRankError classifies an error returned while building or ranking a
// graph. Errors that already carry a code are returned unchanged; nil stays
// nil.
func FromRankError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, netsimplex.ErrDisconnected):
		return Wrap(ErrCodeGraphDisconnected, err, "graph is not connected")
	case errors.Is(err, netsimplex.ErrCycle), errors.Is(err, dag.ErrGraphHasCycle):
		return Wrap(ErrCodeGraphCycle, err, "graph has a cycle")
	case errors.Is(err, netsimplex.ErrGraphTooLarge):
		return Wrap(ErrCodeGraphTooLarge, err, "graph too large")
	case errors.Is(err, netsimplex.ErrInvalidOption):
		return Wrap(ErrCodeInvalidInput, err, "invalid rank options")
	case isGraphError(err):
		return Wrap(ErrCodeInvalidGraph, err, "invalid graph")
	default:
		return Wrap(ErrCodeInternal, err, "ranking failed")
	}
}

var graphErrors = []error{
	netsimplex.ErrUnknownNode,
	netsimplex.ErrSelfLoop,
	netsimplex.ErrNegativeMinLen,
	netsimplex.ErrNegativeWeight,
	dag.ErrInvalidNodeID,
	dag.ErrDuplicateNodeID,
	dag.ErrUnknownSourceNode,
	dag.ErrUnknownTargetNode,
	dag.ErrInvalidEdgeEndpoint,
	dag.ErrInvalidEdgeAttr,
	dag.ErrRowSpan,
	dag.ErrNonConsecutiveRows,
}

func isGraphError(err error) bool {
	for _, target := range graphErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
