package protocol

import "fmt"

// Kind identifies the variant of an Activity. The set is closed: every switch
// over Kind must handle all variants and fail loudly on anything else.
type Kind string

const (
	KindThought      Kind = "THOUGHT"
	KindAction       Kind = "ACTION"
	KindResponse     Kind = "RESPONSE"
	KindElicitation  Kind = "ELICITATION"
	KindError        Kind = "ERROR"
	KindUserResponse Kind = "USER_RESPONSE"
	KindToolResult   Kind = "TOOL_RESULT"
)

// ToolName is the closed enumeration of operations the dispatcher supports.
type ToolName string

const (
	ToolForkRepository    ToolName = "forkRepository"
	ToolGetFileContent    ToolName = "getFileContent"
	ToolCreatePullRequest ToolName = "createPullRequest"
	ToolGeocodeLocation   ToolName = "geocodeLocation"
	ToolGetWeather        ToolName = "getWeather"
	ToolGetCurrentTime    ToolName = "getCurrentTime"
)

// AllTools lists every supported tool, in a stable order (used for prompts).
var AllTools = []ToolName{
	ToolForkRepository,
	ToolGetFileContent,
	ToolCreatePullRequest,
	ToolGeocodeLocation,
	ToolGetWeather,
	ToolGetCurrentTime,
}

// IsValidTool reports whether name is part of the closed enumeration.
func IsValidTool(name string) bool {
	for _, t := range AllTools {
		if string(t) == name {
			return true
		}
	}
	return false
}

// Activity is one typed unit of agent output per turn. Exactly one Activity is
// produced per model turn, never a mix of variants.
type Activity struct {
	Kind Kind   `json:"kind"`
	Body string `json:"body,omitempty"`

	// Parameter is the name of the missing input an Elicitation targets.
	Parameter string `json:"parameter,omitempty"`

	// Action and ActionParameter are set only for KindAction. ActionParameter
	// is nil for a bare "ACTION: toolName" with no parentheses.
	Action          ToolName `json:"action,omitempty"`
	ActionParameter *string  `json:"action_parameter,omitempty"`
}

func NewThought(body string) Activity {
	return Activity{Kind: KindThought, Body: body}
}

func NewResponse(body string) Activity {
	return Activity{Kind: KindResponse, Body: body}
}

func NewError(body string) Activity {
	return Activity{Kind: KindError, Body: body}
}

func NewUserResponse(body string) Activity {
	return Activity{Kind: KindUserResponse, Body: body}
}

func NewElicitation(parameter, body string) Activity {
	return Activity{Kind: KindElicitation, Parameter: parameter, Body: body}
}

func NewAction(tool ToolName, parameter *string) Activity {
	return Activity{Kind: KindAction, Action: tool, ActionParameter: parameter}
}

func NewToolResult(body string) Activity {
	return Activity{Kind: KindToolResult, Body: body}
}

// Validate checks the Activity is a well-formed member of the union.
func (a Activity) Validate() error {
	switch a.Kind {
	case KindThought, KindResponse, KindError, KindUserResponse, KindElicitation, KindToolResult:
		return nil
	case KindAction:
		if !IsValidTool(string(a.Action)) {
			return fmt.Errorf("%w: %q", ErrInvalidToolName, a.Action)
		}
		return nil
	default:
		return fmt.Errorf("unknown activity kind %q", a.Kind)
	}
}
