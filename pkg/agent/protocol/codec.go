package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Marker constants. Each raw model output is expected to begin with exactly
// one of these.
const (
	MarkerThinking     = "THINKING:"
	MarkerAction       = "ACTION:"
	MarkerUserResponse = "USER_RESPONSE:"
	MarkerResponse     = "RESPONSE:"
	MarkerElicitation  = "ELICITATION:"
	MarkerError        = "ERROR:"
	MarkerToolResult   = "TOOL_RESULT:"
)

// ErrInvalidToolName means the model requested a tool outside the closed
// enumeration. This is never silently downgraded: dispatching an unknown tool
// is unsafe.
var ErrInvalidToolName = errors.New("invalid tool name")

// Decode parses a model's raw text output into exactly one Activity.
//
// The text is expected to begin with one of the markers above. Text with no
// recognized marker decodes as a Thought carrying the full text (permissive
// fallback). The only decode failure is ErrInvalidToolName.
func Decode(raw string) (Activity, error) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, MarkerThinking):
		return NewThought(stripMarker(trimmed, MarkerThinking)), nil

	case strings.HasPrefix(trimmed, MarkerAction):
		return decodeAction(stripMarker(trimmed, MarkerAction))

	case strings.HasPrefix(trimmed, MarkerUserResponse):
		return NewUserResponse(stripMarker(trimmed, MarkerUserResponse)), nil

	case strings.HasPrefix(trimmed, MarkerResponse):
		return NewResponse(stripMarker(trimmed, MarkerResponse)), nil

	case strings.HasPrefix(trimmed, MarkerElicitation):
		return decodeElicitation(stripMarker(trimmed, MarkerElicitation)), nil

	case strings.HasPrefix(trimmed, MarkerError):
		return NewError(stripMarker(trimmed, MarkerError)), nil

	default:
		// No marker: treat the whole output as internal reasoning.
		return NewThought(trimmed), nil
	}
}

// decodeAction parses "toolName(parameters)" or a bare "toolName". The text
// between the parentheses is kept raw; parameter semantics belong to the
// dispatcher, not the codec.
func decodeAction(rest string) (Activity, error) {
	open := strings.Index(rest, "(")
	if open == -1 {
		name := strings.TrimSpace(rest)
		if !IsValidTool(name) {
			return Activity{}, fmt.Errorf("%w: %q", ErrInvalidToolName, name)
		}
		return NewAction(ToolName(name), nil), nil
	}

	name := strings.TrimSpace(rest[:open])
	if !IsValidTool(name) {
		return Activity{}, fmt.Errorf("%w: %q", ErrInvalidToolName, name)
	}

	inner := rest[open+1:]
	if close := strings.LastIndex(inner, ")"); close != -1 {
		inner = inner[:close]
	}
	return NewAction(ToolName(name), &inner), nil
}

// decodeElicitation parses "<parameter>: <question>". The first colon after
// the marker splits parameter from question; without one, the remainder is the
// question and no parameter is recorded.
func decodeElicitation(rest string) Activity {
	colon := strings.Index(rest, ":")
	if colon == -1 {
		return NewElicitation("", rest)
	}
	parameter := strings.TrimSpace(rest[:colon])
	question := strings.TrimSpace(rest[colon+1:])
	if parameter == "" {
		return NewElicitation("", rest)
	}
	return NewElicitation(parameter, question)
}

// Encode renders an Activity into its canonical one-line transcript form, the
// inverse of Decode. It is how history is replayed into the model context.
func Encode(a Activity) (string, error) {
	switch a.Kind {
	case KindThought:
		return MarkerThinking + " " + a.Body, nil
	case KindResponse:
		return MarkerResponse + " " + a.Body, nil
	case KindError:
		return MarkerError + " " + a.Body, nil
	case KindUserResponse:
		return MarkerUserResponse + " " + a.Body, nil
	case KindElicitation:
		if a.Parameter == "" {
			return MarkerElicitation + " " + a.Body, nil
		}
		return fmt.Sprintf("%s %s: %s", MarkerElicitation, a.Parameter, a.Body), nil
	case KindAction:
		if a.ActionParameter == nil {
			return fmt.Sprintf("%s %s", MarkerAction, a.Action), nil
		}
		return fmt.Sprintf("%s %s(%s)", MarkerAction, a.Action, *a.ActionParameter), nil
	case KindToolResult:
		return MarkerToolResult + " " + a.Body, nil
	default:
		return "", fmt.Errorf("unknown activity kind %q", a.Kind)
	}
}

func stripMarker(text, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, marker))
}
