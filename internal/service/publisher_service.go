package service

import (
	"encoding/json"
	"log"

	"issue-agent-be/internal/dto"
	"issue-agent-be/internal/mapper"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/pkg/agent/protocol"
	"issue-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService bridges the engine to the in-process event bus.
type IPublisherService interface {
	PublishTurnCompleted(sessionID string, terminal protocol.Activity)
	Close() error
}

// turnEventBuffer sizes the gochannel output buffer. Publishing happens while
// the engine holds the per-session turn lock, so a lagging consumer must not
// backpressure the turn itself.
const turnEventBuffer = 256

// NewTurnEventBus builds the in-process bus the engine publishes completed
// turns on and the relay consumer subscribes to.
func NewTurnEventBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: turnEventBuffer,
		},
		logger,
	)
}

type publisherService struct {
	bus    message.Publisher
	mapper *mapper.ActivityMapper
	log    logger.ILogger
}

func NewPublisherService(bus message.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		bus:    bus,
		mapper: mapper.NewActivityMapper(),
		log:    log,
	}
}

func (s *publisherService) PublishTurnCompleted(sessionID string, terminal protocol.Activity) {
	payload, err := json.Marshal(dto.TurnCompletedMessage{
		SessionID: sessionID,
		Activity:  s.mapper.ToResponse(terminal),
	})
	if err != nil {
		log.Printf("Error marshaling turn-completed message for session %s: %v", sessionID, err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.bus.Publish(events.TopicTurnCompleted, msg); err != nil {
		s.log.Warn("PublisherService", "Failed to publish turn-completed event", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (s *publisherService) Close() error {
	return s.bus.Close()
}
