package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"issue-agent-be/internal/dto"
	"issue-agent-be/internal/mapper"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/internal/repository/contract"
	"issue-agent-be/pkg/agent/engine"
)

// IAgentService is the application-facing surface over the turn engine: it
// translates tracker webhook events into turns and exposes session admin
// operations.
type IAgentService interface {
	HandleWebhookEvent(ctx context.Context, req *dto.WebhookEventRequest) (*dto.TurnResponse, error)
	GetSessionActivities(ctx context.Context, sessionID string) ([]dto.ActivityResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CleanupSessions(ctx context.Context, req *dto.CleanupRequest) (*dto.CleanupResponse, error)
}

type agentService struct {
	engine      *engine.Engine
	stateStore  contract.SessionStateStore
	activityLog contract.ActivityLog
	mapper      *mapper.ActivityMapper
	log         logger.ILogger
}

func NewAgentService(
	turnEngine *engine.Engine,
	stateStore contract.SessionStateStore,
	activityLog contract.ActivityLog,
	log logger.ILogger,
) IAgentService {
	return &agentService{
		engine:      turnEngine,
		stateStore:  stateStore,
		activityLog: activityLog,
		mapper:      mapper.NewActivityMapper(),
		log:         log,
	}
}

func (s *agentService) HandleWebhookEvent(ctx context.Context, req *dto.WebhookEventRequest) (*dto.TurnResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("%s:%s", req.WorkspaceID, req.Issue.ID)
	}

	log.Printf("Handling %s event for session %s", req.Type, sessionID)

	terminal, err := s.engine.HandleTurn(ctx, sessionID, renderExternalInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to run turn for session %s: %w", sessionID, err)
	}

	return &dto.TurnResponse{
		SessionID: sessionID,
		Activity:  s.mapper.ToResponse(terminal),
	}, nil
}

// renderExternalInput flattens the webhook issue into the sectioned text the
// engine's context parser understands.
func renderExternalInput(req *dto.WebhookEventRequest) string {
	var b strings.Builder

	if req.Issue.Title != "" {
		b.WriteString(req.Issue.Title)
		b.WriteString("\n")
	}
	if req.Issue.Description != "" {
		b.WriteString(engine.SectionDescription)
		b.WriteString(" ")
		b.WriteString(req.Issue.Description)
		b.WriteString("\n")
	}
	if len(req.Issue.Comments) > 0 {
		b.WriteString(engine.SectionComments)
		b.WriteString("\n")
		for _, c := range req.Issue.Comments {
			fmt.Fprintf(&b, "%s: %s\n", c.Author, c.Body)
		}
	}
	if len(req.RequiredParams) > 0 {
		b.WriteString(engine.SectionRequiredParams)
		b.WriteString(" ")
		b.WriteString(strings.Join(req.RequiredParams, ","))
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func (s *agentService) GetSessionActivities(ctx context.Context, sessionID string) ([]dto.ActivityResponse, error) {
	activities, err := s.activityLog.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log for session %s: %w", sessionID, err)
	}
	return s.mapper.ToResponseList(activities), nil
}

func (s *agentService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.stateStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *agentService) CleanupSessions(ctx context.Context, req *dto.CleanupRequest) (*dto.CleanupResponse, error) {
	olderThan := time.Duration(req.OlderThanDays) * 24 * time.Hour

	removed, err := s.stateStore.Cleanup(ctx, olderThan)
	if err != nil {
		return nil, fmt.Errorf("session cleanup failed: %w", err)
	}

	s.log.Info("AgentService", "Session cleanup finished", map[string]interface{}{
		"older_than_days": req.OlderThanDays,
		"removed":         removed,
	})

	return &dto.CleanupResponse{Removed: removed}, nil
}
