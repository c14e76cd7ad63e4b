package engine

import (
	apperrors "github.com/vidcraft-ai/vidcraft/internal/errors"
	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/pkg/protocol"
)

// Run is everything a plan execution accumulated.
type Run struct {
	Plan      *planlib.Plan
	Reached   int // entries processed, including a failing one
	Outputs   map[string]any
	Log       []string
	UIActions []protocol.UIAction
	Err       error
}

// Aggregate builds the result of a run. Tool names and rationales follow
// plan order and cover only the entries that completed; a failing entry
// is not listed.
func Aggregate(run Run) *protocol.AggregateResult {
	res := &protocol.AggregateResult{
		Outputs:          make(map[string]any, len(run.Outputs)),
		ToolSelectionLog: append([]string{}, run.Log...),
		ToolsUsed:        []string{},
		Reasoning:        []string{},
		UIActions:        append([]protocol.UIAction{}, run.UIActions...),
		Status:           protocol.StatusSuccess,
	}
	for k, v := range run.Outputs {
		res.Outputs[k] = v
	}

	if run.Plan != nil {
		completed := run.Reached
		if run.Err != nil {
			completed--
		}
		completed = max(0, min(completed, len(run.Plan.Entries)))
		for _, e := range run.Plan.Entries[:completed] {
			res.ToolsUsed = append(res.ToolsUsed, e.Capability)
			res.Reasoning = append(res.Reasoning, e.Rationale)
		}
	}

	if run.Err != nil {
		msg := apperrors.FormatUserMessage(run.Err)
		res.Status = msg
		res.Error = msg
		res.ErrorCode = apperrors.CodeOf(run.Err)
	}
	return res
}
