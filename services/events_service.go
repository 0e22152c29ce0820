package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/models"
	"github.com/segmentio/kafka-go"
)

// Order event names published for kitchen consumers.
const (
	EventOrderOpened = "order_opened"
	EventOrderClosed = "order_closed"
)

// OrderEvent is the payload published whenever an order opens or closes.
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     uint      `json:"order_id"`
	Type        string    `json:"type"`
	TableNumber *uint     `json:"table_number,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderEvent builds the event payload for an order.
func NewOrderEvent(event string, order *models.Order) OrderEvent {
	return OrderEvent{
		Event:       event,
		OrderID:     order.ID,
		Type:        order.Type,
		TableNumber: order.TableNumber,
		Timestamp:   time.Now(),
	}
}

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

var eventPublisherInstance OrderEventPublisher

// KafkaEventPublisher publishes order events to a Kafka topic, keyed by
// order id so events for one order stay in one partition.
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// InitEventPublisher initializes the order event publisher. Without a
// configured broker it falls back to a no-op publisher.
func InitEventPublisher() OrderEventPublisher {
	cfg := config.GetConfig()
	if cfg == nil || cfg.KafkaBroker == "" {
		log.Println("No Kafka broker configured, order events disabled")
		eventPublisherInstance = &NoopEventPublisher{}
		return eventPublisherInstance
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBroker),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	eventPublisherInstance = &KafkaEventPublisher{writer: writer}
	log.Printf("Publishing order events to %s topic %s", cfg.KafkaBroker, cfg.KafkaTopic)
	return eventPublisherInstance
}

// GetEventPublisher returns the initialized event publisher instance.
func GetEventPublisher() OrderEventPublisher {
	return eventPublisherInstance
}

// SetEventPublisher sets the event publisher instance (primarily for testing).
func SetEventPublisher(publisher OrderEventPublisher) {
	eventPublisherInstance = publisher
}

// PublishOrderEvent writes the event to the topic.
func (p *KafkaEventPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopEventPublisher drops all events; used when no broker is configured.
type NoopEventPublisher struct{}

// PublishOrderEvent discards the event.
func (p *NoopEventPublisher) PublishOrderEvent(context.Context, OrderEvent) error {
	return nil
}

// Close is a no-op.
func (p *NoopEventPublisher) Close() error {
	return nil
}

// PublishOrderEventAsync publishes without blocking the request path,
// logging failures instead of surfacing them to the customer.
func PublishOrderEventAsync(event OrderEvent) {
	publisher := GetEventPublisher()
	if publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.PublishOrderEvent(ctx, event); err != nil {
			log.Printf("failed to publish %s for order %d: %v", event.Event, event.OrderID, err)
		}
	}()
}
