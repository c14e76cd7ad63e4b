package protocol

// CapabilityInfo describes one capability in a listing.
type CapabilityInfo struct {
	Description string         `json:"description"`
	Kind        string         `json:"kind"` // computational or signal
	Keywords    []string       `json:"keywords"`
	InputSchema map[string]any `json:"input_schema"`
}

// CapabilityListing is the response of list_capabilities.
type CapabilityListing struct {
	Capabilities map[string]CapabilityInfo `json:"capabilities"`
	Order        []string                  `json:"order"`
	PrimaryTool  string                    `json:"primary_tool"`
	Description  string                    `json:"description"`
	Workflow     string                    `json:"workflow"`
	UIFeatures   []string                  `json:"ui_features"`
}

// ProcessRequest is the input of process_request.
type ProcessRequest struct {
	Prompt string `json:"prompt" jsonschema:"the natural-language request to fulfil"`
}

// SignalAck is returned when a signal capability is called directly.
type SignalAck struct {
	UIAction        string   `json:"ui_action"`
	Reason          string   `json:"reason"`
	SuggestedVideos []string `json:"suggested_videos,omitempty"`
	Message         string   `json:"message"`
	Status          string   `json:"status"`
}

// StatusUIActionRequested is the status of a SignalAck.
const StatusUIActionRequested = "ui_action_requested"
