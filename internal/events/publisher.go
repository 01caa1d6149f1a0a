package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/doannc02/exam-process-service/internal/models"
)

const (
	EventProposalStatusChanged = "proposal.status_changed"
	EventProposalCreated       = "proposal.created"
	EventProposalDeleted       = "proposal.deleted"
)

// Event is the envelope written to the broker.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ProposalStatusChangedData describes one applied status transition,
// including how many children the cascade touched.
type ProposalStatusChangedData struct {
	ProposalID      uint                  `json:"proposal_id"`
	PlanCode        string                `json:"plan_code"`
	FromStatus      models.ProposalStatus `json:"from_status"`
	ToStatus        models.ProposalStatus `json:"to_status"`
	ChangedByUserID uint                  `json:"changed_by_user_id"`
	ExamSetsUpdated int                   `json:"exam_sets_updated"`
	ExamsUpdated    int                   `json:"exams_updated"`
	Comment         *string               `json:"comment,omitempty"`
}

type ProposalLifecycleData struct {
	ProposalID  uint   `json:"proposal_id"`
	PlanCode    string `json:"plan_code"`
	ActorUserID uint   `json:"actor_user_id"`
}

// Publisher emits domain events. Publishing is best-effort: callers log
// failures but never roll back committed writes because of them.
type Publisher interface {
	Publish(eventType string, data interface{}) error
	Close() error
}

// KafkaPublisher writes events to one Kafka topic via watermill.
type KafkaPublisher struct {
	publisher message.Publisher
	topic     string
	source    string
	logger    *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: publisher,
		topic:     topic,
		source:    "exam-process-service",
		logger:    logger,
	}, nil
}

func (p *KafkaPublisher) Publish(eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    p.source,
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, body)
	msg.Metadata.Set("event_type", eventType)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}

	p.logger.Debug("Event published", "event_type", eventType, "event_id", event.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(eventType string, data interface{}) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }

// MockPublisher records events in memory for tests.
type MockPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "test",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) GetPublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
