package service

import (
	"context"
	"testing"

	"issue-agent-be/internal/dto"
	"issue-agent-be/internal/repository/memory"
	"issue-agent-be/pkg/agent/engine"
	"issue-agent-be/pkg/agent/protocol"
	"issue-agent-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	output string
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return p.output, nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(_ context.Context, tool protocol.ToolName, _ *string) (string, error) {
	return "ok: " + string(tool), nil
}

func newAgentHarness(t *testing.T, modelOutput string) (IAgentService, *memory.ActivityLog) {
	t.Helper()
	states := memory.NewSessionStateRepository()
	activities := memory.NewActivityLog()
	eng := engine.New(states, activities, &scriptedProvider{output: modelOutput}, noopDispatcher{}, nil, newNopLogger())
	return NewAgentService(eng, states, activities, newNopLogger()), activities
}

func TestHandleWebhookEventDerivesSessionID(t *testing.T) {
	svc, _ := newAgentHarness(t, "RESPONSE: Done.")

	resp, err := svc.HandleWebhookEvent(context.Background(), &dto.WebhookEventRequest{
		Type:        "issue.updated",
		WorkspaceID: "ws-1",
		Issue:       &dto.WebhookIssue{ID: "42", Title: "Broken build"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ws-1:42", resp.SessionID)
	assert.Equal(t, string(protocol.KindResponse), resp.Activity.Kind)
	assert.Equal(t, "Done.", resp.Activity.Body)
}

func TestHandleWebhookEventRespectsExplicitSessionID(t *testing.T) {
	svc, _ := newAgentHarness(t, "RESPONSE: Done.")

	resp, err := svc.HandleWebhookEvent(context.Background(), &dto.WebhookEventRequest{
		Type:        "issue.updated",
		WorkspaceID: "ws-1",
		SessionID:   "ws-1:custom",
		Issue:       &dto.WebhookIssue{ID: "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ws-1:custom", resp.SessionID)
}

func TestRenderExternalInputSections(t *testing.T) {
	input := renderExternalInput(&dto.WebhookEventRequest{
		WorkspaceID: "ws-1",
		Issue: &dto.WebhookIssue{
			ID:          "42",
			Title:       "Deploy fails",
			Description: "Pipeline crashes on step 3",
			Comments: []dto.WebhookComment{
				{Author: "alice", Body: "repo is org/app"},
			},
		},
		RequiredParams: []string{"branch", "target"},
	})

	parsed := engine.ParseIssueContext(input, nil)
	assert.Equal(t, "Pipeline crashes on step 3", parsed[engine.ContextKeyDescription])
	assert.Equal(t, "repo is org/app", parsed["alice"])
	assert.Contains(t, parsed, "branch")
	assert.Contains(t, parsed, "target")
}

func TestGetSessionActivitiesAfterTurn(t *testing.T) {
	svc, _ := newAgentHarness(t, "THINKING: Reading the issue.")

	_, err := svc.HandleWebhookEvent(context.Background(), &dto.WebhookEventRequest{
		Type:        "issue.created",
		WorkspaceID: "ws-1",
		Issue:       &dto.WebhookIssue{ID: "7", Description: "Something"},
	})
	require.NoError(t, err)

	activities, err := svc.GetSessionActivities(context.Background(), "ws-1:7")
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, string(protocol.KindUserResponse), activities[0].Kind)
	assert.Equal(t, string(protocol.KindThought), activities[1].Kind)
}

func TestDeleteSessionClearsState(t *testing.T) {
	states := memory.NewSessionStateRepository()
	activities := memory.NewActivityLog()
	eng := engine.New(states, activities, &scriptedProvider{output: "RESPONSE: hi"}, noopDispatcher{}, nil, newNopLogger())
	svc := NewAgentService(eng, states, activities, newNopLogger())

	_, err := svc.HandleWebhookEvent(context.Background(), &dto.WebhookEventRequest{
		Type:        "issue.created",
		WorkspaceID: "ws-1",
		Issue:       &dto.WebhookIssue{ID: "7"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(context.Background(), "ws-1:7"))

	st, err := states.Load(context.Background(), "ws-1:7")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestCleanupSessionsReportsRemovals(t *testing.T) {
	svc, _ := newAgentHarness(t, "RESPONSE: hi")

	_, err := svc.HandleWebhookEvent(context.Background(), &dto.WebhookEventRequest{
		Type:        "issue.created",
		WorkspaceID: "ws-1",
		Issue:       &dto.WebhookIssue{ID: "7"},
	})
	require.NoError(t, err)

	// Nothing is old enough yet.
	resp, err := svc.CleanupSessions(context.Background(), &dto.CleanupRequest{OlderThanDays: 1})
	require.NoError(t, err)
	assert.Zero(t, resp.Removed)
}
