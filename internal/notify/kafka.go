package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/config"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// KafkaDispatcher publishes events to a Kafka topic, keyed by order id so
// events of one order stay in one partition. Publishes go through a circuit
// breaker so a broker outage fails fast instead of stalling every order.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	cb       *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// NewKafkaProducer creates a synchronous producer that waits for all
// in-sync replicas.
func NewKafkaProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return p, nil
}

// NewKafkaDispatcher takes ownership of producer; Close closes it.
func NewKafkaDispatcher(producer sarama.SyncProducer, topic string, logger zerolog.Logger) *KafkaDispatcher {
	logger = logger.With().Str("component", "kafka_dispatcher").Str("topic", topic).Logger()

	settings := gobreaker.Settings{
		Name:        "kafka-" + topic,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &KafkaDispatcher{
		producer: producer,
		topic:    topic,
		cb:       gobreaker.NewCircuitBreaker(settings),
		logger:   logger,
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_kind"), Value: []byte(event.Kind)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   d.topic,
		Key:     sarama.StringEncoder(strconv.FormatInt(event.OrderID, 10)),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	}

	_, err = d.cb.Execute(func() (interface{}, error) {
		partition, offset, err := d.producer.SendMessage(msg)
		if err != nil {
			return nil, err
		}
		d.logger.Debug().
			Str("event_id", event.ID.String()).
			Int32("partition", partition).
			Int64("offset", offset).
			Msg("event published")
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind, err)
	}

	return nil
}

// Close closes the underlying producer.
func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}
