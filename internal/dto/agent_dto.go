package dto

// WebhookEventRequest is the inbound task-tracker event. Only issue events
// reach the agent; everything else is acknowledged and dropped at the
// controller.
type WebhookEventRequest struct {
	Type           string        `json:"type" validate:"required"`
	WorkspaceID    string        `json:"workspace_id" validate:"required"`
	SessionID      string        `json:"session_id"`
	Issue          *WebhookIssue `json:"issue" validate:"required"`
	RequiredParams []string      `json:"required_params"`
}

type WebhookIssue struct {
	ID          string           `json:"id" validate:"required"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Comments    []WebhookComment `json:"comments"`
}

type WebhookComment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// ActivityResponse is the JSON shape of one activity returned to callers.
type ActivityResponse struct {
	Kind            string  `json:"kind"`
	Body            string  `json:"body,omitempty"`
	Parameter       string  `json:"parameter,omitempty"`
	Action          string  `json:"action,omitempty"`
	ActionParameter *string `json:"action_parameter,omitempty"`
}

// TurnResponse is what the webhook endpoint returns: the session handled and
// the single terminal activity the turn produced.
type TurnResponse struct {
	SessionID string           `json:"session_id"`
	Activity  ActivityResponse `json:"activity"`
}

// TurnCompletedMessage travels over the in-process event bus from the engine
// to the relay consumer. Session ids are "<workspace_id>:<issue_id>", so the
// consumer can recover both.
type TurnCompletedMessage struct {
	SessionID string           `json:"session_id"`
	Activity  ActivityResponse `json:"activity"`
}

type CleanupRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"required,min=1"`
}

type CleanupResponse struct {
	Removed int64 `json:"removed"`
}
