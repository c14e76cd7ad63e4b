// Package protocol provides the data structures VidCraft exchanges with its
// clients. These types can be imported by front ends and extensions.
package protocol

import "encoding/json"

// StatusSuccess is the status of a request that ran every plan step.
const StatusSuccess = "success"

// UIAction is a recorded signal for the front end (e.g. open the sidebar).
type UIAction struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// AggregateResult is the outcome of one processed request.
//
// Outputs holds the merged capability outputs (e.g. "code", "video_url")
// and is flattened into the top-level JSON object. On failure Status holds
// the error description, which is also copied into Error.
type AggregateResult struct {
	RequestID        string         `json:"request_id,omitempty"`
	Outputs          map[string]any `json:"-"`
	ToolSelectionLog []string       `json:"tool_selection_log"`
	ToolsUsed        []string       `json:"tools_used"`
	Reasoning        []string       `json:"reasoning"`
	UIActions        []UIAction     `json:"ui_actions"`
	Status           string         `json:"status"`
	ErrorCode        string         `json:"error_code,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// OK reports whether the request succeeded.
func (r *AggregateResult) OK() bool {
	return r != nil && r.Status == StatusSuccess
}

// Output returns a merged output value as a string, or "".
func (r *AggregateResult) Output(key string) string {
	if r == nil {
		return ""
	}
	s, _ := r.Outputs[key].(string)
	return s
}

// reserved lists the fixed top-level keys; outputs never override them.
var reserved = []string{"request_id", "tool_selection_log", "tools_used", "reasoning", "ui_actions", "status", "error_code", "error"}

type aggregateFields AggregateResult

// MarshalJSON flattens Outputs next to the fixed fields.
func (r AggregateResult) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(aggregateFields(r))
	if err != nil {
		return nil, err
	}
	if len(r.Outputs) == 0 {
		return fixed, nil
	}

	merged := make(map[string]json.RawMessage, len(r.Outputs)+len(reserved))
	for k, v := range r.Outputs {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(fixed, &top); err != nil {
		return nil, err
	}
	for k, v := range top {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON splits unknown top-level keys back into Outputs.
func (r *AggregateResult) UnmarshalJSON(data []byte) error {
	var fields aggregateFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range reserved {
		delete(all, k)
	}
	*r = AggregateResult(fields)
	if len(all) > 0 {
		r.Outputs = all
	}
	return nil
}
