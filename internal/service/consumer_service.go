package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"issue-agent-be/internal/dto"
	"issue-agent-be/pkg/agent/protocol"
	"issue-agent-be/pkg/events"
	natsbus "issue-agent-be/pkg/nats"
	"issue-agent-be/pkg/tracker"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService relays completed turns back to the task tracker as issue
// comments. Only user-facing activities are relayed; agent-internal ones
// (Thought, Action, ToolResult, UserResponse) stay in the session log.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub        *gochannel.GoChannel
	tokenService  ITokenService
	trackerClient *tracker.Client
	natsPublisher *natsbus.Publisher // optional
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	tokenService ITokenService,
	trackerClient *tracker.Client,
	natsPublisher *natsbus.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:        pubSub,
		tokenService:  tokenService,
		trackerClient: trackerClient,
		natsPublisher: natsPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, events.TopicTurnCompleted)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal turn-completed message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	body, relay := commentBody(payload.Activity)
	if !relay {
		msg.Ack()
		return
	}

	workspaceID, issueID, ok := strings.Cut(payload.SessionID, ":")
	if !ok || workspaceID == "" || issueID == "" {
		log.Printf("[ERROR] Malformed session id %q, dropping relay", payload.SessionID)
		msg.Ack()
		return
	}

	token, err := cs.tokenService.GetToken(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, ErrRefreshFailed) || errors.Is(err, ErrInvalidWorkspace) {
			// Not retriable: the workspace must re-authorize (or the session
			// id is junk). Redelivering would re-attempt the refresh in a
			// tight loop and spam re-auth notices. Ack.
			log.Printf("[ERROR] Dropping relay for workspace %s: %v", workspaceID, err)
			msg.Ack()
			return
		}
		log.Printf("[ERROR] Token lookup failed for workspace %s: %v", workspaceID, err)
		msg.Nack()
		return
	}
	if token == "" {
		// No credential on file. Retrying will not help until the workspace
		// re-authorizes, so drop the relay rather than loop on it.
		log.Printf("[WARN] Workspace %s has no usable token, dropping relay for issue %s", workspaceID, issueID)
		msg.Ack()
		return
	}

	if err := cs.trackerClient.PostComment(ctx, issueID, body, token); err != nil {
		log.Printf("[ERROR] Failed to post comment on issue %s: %v", issueID, err)
		msg.Nack()
		return
	}

	cs.publishNotification(ctx, payload)

	log.Printf("[SUCCESS] Relayed %s activity to issue %s", payload.Activity.Kind, issueID)
	msg.Ack()
}

// commentBody renders the activity as a tracker comment, or reports that the
// activity is not user-facing.
func commentBody(a dto.ActivityResponse) (string, bool) {
	switch protocol.Kind(a.Kind) {
	case protocol.KindResponse:
		return a.Body, true
	case protocol.KindElicitation:
		if a.Parameter != "" {
			return fmt.Sprintf("Additional input needed (%s): %s", a.Parameter, a.Body), true
		}
		return fmt.Sprintf("Additional input needed: %s", a.Body), true
	case protocol.KindError:
		return fmt.Sprintf("The agent hit an error: %s", a.Body), true
	default:
		return "", false
	}
}

func (cs *consumerService) publishNotification(ctx context.Context, payload dto.TurnCompletedMessage) {
	if cs.natsPublisher == nil {
		return
	}
	event := events.NewTurnCompleted(payload.SessionID, payload.Activity.Kind)
	if err := cs.natsPublisher.Publish(ctx, event); err != nil {
		log.Printf("[WARN] Failed to publish turn-completed notification: %v", err)
	}
}
