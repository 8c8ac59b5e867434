package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"issue-agent-be/internal/repository/memory"
	"issue-agent-be/pkg/agent/protocol"
	"issue-agent-be/pkg/agent/state"
	"issue-agent-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	outputs   []string
	err       error
	histories [][]llm.Message
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.histories = append(f.histories, history)
	if f.err != nil {
		return "", f.err
	}
	out := f.outputs[0]
	if len(f.outputs) > 1 {
		f.outputs = f.outputs[1:]
	}
	return out, nil
}

type fakeDispatcher struct {
	result string
	err    error
	calls  []protocol.ToolName
}

func (f *fakeDispatcher) Dispatch(_ context.Context, tool protocol.ToolName, _ *string) (string, error) {
	f.calls = append(f.calls, tool)
	return f.result, f.err
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type failingStore struct{}

func (failingStore) Save(context.Context, *state.SessionState) error { return errors.New("down") }
func (failingStore) Load(context.Context, string) (*state.SessionState, error) {
	return nil, errors.New("down")
}
func (failingStore) Delete(context.Context, string) error { return nil }
func (failingStore) Cleanup(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func newTestEngine(provider llm.LLMProvider, dispatcher *fakeDispatcher) (*Engine, *memory.SessionStateRepository, *memory.ActivityLog) {
	store := memory.NewSessionStateRepository()
	log := memory.NewActivityLog()
	return New(store, log, provider, dispatcher, nil, nopLogger{}), store, log
}

func TestHandleTurnResponseScenario(t *testing.T) {
	provider := &fakeProvider{outputs: []string{"RESPONSE: Done."}}
	eng, store, _ := newTestEngine(provider, &fakeDispatcher{})

	terminal, err := eng.HandleTurn(context.Background(),
		"sess-1", "ISSUE_DESCRIPTION: fix bug\nISSUE_COMMENTS:\nkey: val")
	require.NoError(t, err)

	assert.Equal(t, protocol.KindResponse, terminal.Kind)
	assert.Equal(t, "Done.", terminal.Body)

	st, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "fix bug", st.IssueContext["description"])
	assert.Equal(t, "val", st.IssueContext["key"])
}

func TestHandleTurnActivityOrdering(t *testing.T) {
	provider := &fakeProvider{outputs: []string{`ACTION: getCurrentTime`}}
	dispatcher := &fakeDispatcher{result: "Mon, 01 Jan 2024 10:00:00 UTC"}
	eng, store, log := newTestEngine(provider, dispatcher)

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "what time is it?")
	require.NoError(t, err)

	// The terminal activity is the Action, not the ToolResult.
	assert.Equal(t, protocol.KindAction, terminal.Kind)
	assert.Equal(t, protocol.ToolGetCurrentTime, terminal.Action)
	assert.Equal(t, []protocol.ToolName{protocol.ToolGetCurrentTime}, dispatcher.calls)

	st, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, st.ActivityMessages, 3)
	assert.Equal(t, protocol.KindUserResponse, st.ActivityMessages[0].Kind)
	assert.Equal(t, protocol.KindAction, st.ActivityMessages[1].Kind)
	assert.Equal(t, protocol.KindToolResult, st.ActivityMessages[2].Kind)
	assert.Equal(t, dispatcher.result, st.ActivityMessages[2].Body)

	logged, err := log.GetBySessionID(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, logged, 3)
	assert.Equal(t, protocol.KindUserResponse, logged[0].Kind)
}

func TestHandleTurnReplayProducesSameOrdering(t *testing.T) {
	inputs := []string{"first message", "second message"}

	run := func() []protocol.Kind {
		provider := &fakeProvider{outputs: []string{"THINKING: hmm", "RESPONSE: ok"}}
		eng, store, _ := newTestEngine(provider, &fakeDispatcher{})
		for _, in := range inputs {
			_, err := eng.HandleTurn(context.Background(), "sess-1", in)
			require.NoError(t, err)
		}
		st, err := store.Load(context.Background(), "sess-1")
		require.NoError(t, err)
		kinds := make([]protocol.Kind, len(st.ActivityMessages))
		for i, a := range st.ActivityMessages {
			kinds[i] = a.Kind
		}
		return kinds
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, []protocol.Kind{
		protocol.KindUserResponse, protocol.KindThought,
		protocol.KindUserResponse, protocol.KindResponse,
	}, first)
}

func TestHandleTurnInvalidToolBecomesError(t *testing.T) {
	provider := &fakeProvider{outputs: []string{"ACTION: notARealTool(x)"}}
	dispatcher := &fakeDispatcher{}
	eng, _, _ := newTestEngine(provider, dispatcher)

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "do something")
	require.NoError(t, err)

	assert.Equal(t, protocol.KindError, terminal.Kind)
	assert.Contains(t, terminal.Body, "invalid tool name")
	assert.Empty(t, dispatcher.calls)
}

func TestHandleTurnModelFailureBecomesError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	eng, _, _ := newTestEngine(provider, &fakeDispatcher{})

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "hello")
	require.NoError(t, err)

	assert.Equal(t, protocol.KindError, terminal.Kind)
	assert.Contains(t, terminal.Body, "Model call failed")
}

func TestHandleTurnDispatchFailureFoldsIntoToolResult(t *testing.T) {
	provider := &fakeProvider{outputs: []string{`ACTION: forkRepository("org/repo")`}}
	dispatcher := &fakeDispatcher{err: fmt.Errorf("403 from github")}
	eng, store, _ := newTestEngine(provider, dispatcher)

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "fork it")
	require.NoError(t, err)

	// The turn still succeeds; the failure lands in the ToolResult body.
	assert.Equal(t, protocol.KindAction, terminal.Kind)

	st, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	last := st.ActivityMessages[len(st.ActivityMessages)-1]
	assert.Equal(t, protocol.KindToolResult, last.Kind)
	assert.Contains(t, last.Body, "403 from github")
}

func TestHandleTurnSurvivesStorageOutage(t *testing.T) {
	provider := &fakeProvider{outputs: []string{"RESPONSE: still here"}}
	eng := New(failingStore{}, nil, provider, &fakeDispatcher{}, nil, nopLogger{})

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, protocol.KindResponse, terminal.Kind)
	assert.Equal(t, "still here", terminal.Body)
}

func TestTranscriptRolesAndOrder(t *testing.T) {
	provider := &fakeProvider{outputs: []string{"ACTION: getCurrentTime", "RESPONSE: it is noon"}}
	dispatcher := &fakeDispatcher{result: "noon"}
	eng, _, _ := newTestEngine(provider, dispatcher)

	_, err := eng.HandleTurn(context.Background(), "sess-1", "what time is it?")
	require.NoError(t, err)
	_, err = eng.HandleTurn(context.Background(), "sess-1", "thanks")
	require.NoError(t, err)

	require.Len(t, provider.histories, 2)
	second := provider.histories[1]

	// system prompt, then: user, action, tool result, user
	require.Len(t, second, 5)
	assert.Equal(t, "system", second[0].Role)
	assert.Equal(t, "user", second[1].Role)
	assert.True(t, strings.HasPrefix(second[1].Content, protocol.MarkerUserResponse))
	assert.Equal(t, "assistant", second[2].Role)
	assert.True(t, strings.HasPrefix(second[2].Content, protocol.MarkerAction))
	assert.Equal(t, "user", second[3].Role)
	assert.True(t, strings.HasPrefix(second[3].Content, protocol.MarkerToolResult))
	assert.Equal(t, "user", second[4].Role)
}

func TestHandleTurnEmptyInputStillConsultsModel(t *testing.T) {
	provider := &fakeProvider{outputs: []string{"THINKING: nothing to do"}}
	eng, _, _ := newTestEngine(provider, &fakeDispatcher{})

	terminal, err := eng.HandleTurn(context.Background(), "sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, protocol.KindThought, terminal.Kind)
	assert.Len(t, provider.histories, 1)
}
