package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"issue-agent-be/internal/constant"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/internal/repository/contract"
	"issue-agent-be/pkg/agent/protocol"
	"issue-agent-be/pkg/agent/state"
	"issue-agent-be/pkg/agent/tools"
	"issue-agent-be/pkg/llm"
)

// EventPublisher receives a notification after every completed turn. Publish
// failures are the publisher's problem; the engine never blocks on them.
type EventPublisher interface {
	PublishTurnCompleted(sessionID string, terminal protocol.Activity)
}

// Engine orchestrates one request/response cycle: load state, fold in new
// external input, consult the model, decode, persist, dispatch if the model
// chose an action, and return a single terminal Activity.
type Engine struct {
	stateStore  contract.SessionStateStore
	activityLog contract.ActivityLog
	llmProvider llm.LLMProvider
	dispatcher  tools.Dispatcher
	publisher   EventPublisher // optional
	log         logger.ILogger

	// Serializes turns per session id within this process. Cross-process
	// ordering remains the webhook dispatcher's responsibility.
	turnLocks sync.Map
}

func New(
	stateStore contract.SessionStateStore,
	activityLog contract.ActivityLog,
	llmProvider llm.LLMProvider,
	dispatcher tools.Dispatcher,
	publisher EventPublisher,
	log logger.ILogger,
) *Engine {
	return &Engine{
		stateStore:  stateStore,
		activityLog: activityLog,
		llmProvider: llmProvider,
		dispatcher:  dispatcher,
		publisher:   publisher,
		log:         log,
	}
}

// HandleTurn runs one full turn and returns the terminal Activity. The caller
// always receives a well-formed Activity: model failures and protocol
// violations come back as Error activities, not as raw faults.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, externalInput string) (protocol.Activity, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	// 1. Load state; loss degrades to a fresh session, never a failed turn.
	st, err := e.stateStore.Load(ctx, sessionID)
	if err != nil {
		e.log.Warn("Engine", "State load failed, starting fresh", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		st = nil
	}
	if st == nil {
		st = state.New(sessionID)
	}

	// 2. Fold structured issue context out of the external input.
	st.MergeContext(ParseIssueContext(externalInput, st.IssueContext))

	// 3. The raw input itself joins the conversation.
	e.record(ctx, st, protocol.NewUserResponse(externalInput))

	// 4-5. Consult the model and decode its output.
	terminal := e.consultModel(ctx, st)

	// 6. Persist best-effort; the turn still returns its result.
	e.record(ctx, st, terminal)
	e.persist(ctx, st)

	// 7. Dispatch actions; failures fold into the ToolResult body.
	if terminal.Kind == protocol.KindAction {
		result, derr := e.dispatcher.Dispatch(ctx, terminal.Action, terminal.ActionParameter)
		if derr != nil {
			e.log.Warn("Engine", "Tool dispatch failed", map[string]interface{}{
				"session_id": sessionID,
				"tool":       string(terminal.Action),
				"error":      derr.Error(),
			})
			result = fmt.Sprintf("Tool %s failed: %v", terminal.Action, derr)
		}
		e.record(ctx, st, protocol.NewToolResult(result))
		e.persist(ctx, st)
	}

	if e.publisher != nil {
		e.publisher.PublishTurnCompleted(sessionID, terminal)
	}

	// 8. The decoded activity, not the ToolResult, is the turn's answer.
	return terminal, nil
}

func (e *Engine) consultModel(ctx context.Context, st *state.SessionState) protocol.Activity {
	raw, err := e.llmProvider.Chat(ctx, e.renderTranscript(st))
	if err != nil {
		e.log.Error("Engine", "Model call failed", map[string]interface{}{
			"session_id": st.ID,
			"error":      err.Error(),
		})
		return protocol.NewError(fmt.Sprintf("Model call failed: %v", err))
	}

	activity, err := protocol.Decode(raw)
	if err != nil {
		// InvalidToolName: surfaced as a visible Error activity, never a
		// raw protocol violation.
		e.log.Warn("Engine", "Model emitted an invalid activity", map[string]interface{}{
			"session_id": st.ID,
			"raw":        raw,
			"error":      err.Error(),
		})
		return protocol.NewError(err.Error())
	}
	return activity
}

// renderTranscript replays the ordered history into model-visible messages,
// oldest first, one encoded line per activity, under the system prompt plus
// the accumulated issue context.
func (e *Engine) renderTranscript(st *state.SessionState) []llm.Message {
	messages := make([]llm.Message, 0, len(st.ActivityMessages)+1)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.AgentSystemPromptV1 + renderIssueContext(st.IssueContext),
	})

	for _, a := range st.ActivityMessages {
		line, err := protocol.Encode(a)
		if err != nil {
			e.log.Warn("Engine", "Skipping unencodable activity", map[string]interface{}{
				"session_id": st.ID,
				"kind":       string(a.Kind),
				"error":      err.Error(),
			})
			continue
		}

		role := constant.ChatMessageRoleAssistant
		if a.Kind == protocol.KindUserResponse || a.Kind == protocol.KindToolResult {
			role = constant.ChatMessageRoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: line})
	}

	return messages
}

func renderIssueContext(issueContext map[string]string) string {
	if len(issueContext) == 0 {
		return ""
	}

	keys := make([]string, 0, len(issueContext))
	for k := range issueContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("\n\nISSUE CONTEXT:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, issueContext[k])
	}
	return b.String()
}

// record appends to the working state and mirrors into the activity log.
func (e *Engine) record(ctx context.Context, st *state.SessionState, a protocol.Activity) {
	st.Append(a)
	if e.activityLog == nil {
		return
	}
	if err := e.activityLog.Append(ctx, st.ID, a); err != nil {
		e.log.Warn("Engine", "Activity log append failed", map[string]interface{}{
			"session_id": st.ID,
			"kind":       string(a.Kind),
			"error":      err.Error(),
		})
	}
}

// persist saves best-effort: durability is per turn, not transactional with
// the response.
func (e *Engine) persist(ctx context.Context, st *state.SessionState) {
	if err := e.stateStore.Save(ctx, st); err != nil {
		e.log.Error("Engine", "State persist failed", map[string]interface{}{
			"session_id": st.ID,
			"error":      err.Error(),
		})
	}
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	actual, _ := e.turnLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
