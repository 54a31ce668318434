// Package broker wraps confluent-kafka-go behind a small interface so
// stages depend on Publish/Consume rather than the client directly,
// the way the teacher hides Postgres behind ports.IOCRepository.
// Kafka is the only message-broker client found anywhere in the
// retrieval pack (a SIEM-gateway reference file using
// confluentinc/confluent-kafka-go), so it is this pipeline's broker.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Topic names, §6. Each stage consumes one topic and publishes to the
// next; a parallel "<topic>.dlq" exists for exhausted retries.
const (
	TopicIngested     = "alerts.ingested"
	TopicNormalized   = "alerts.normalized"
	TopicContextual   = "alerts.contextualized"
	TopicThreatScored = "alerts.threat-scored"
	TopicTriaged      = "alerts.triaged"

	dlqSuffix = ".dlq"
)

// DLQTopic returns the dead-letter topic name for a primary topic.
func DLQTopic(topic string) string { return topic + dlqSuffix }

// Broker is the publish/consume surface every stage depends on.
type Broker interface {
	Publish(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error
	Consume(ctx context.Context, topics []string, handler Handler) error
	Close() error
}

// Handler processes one delivered message. Returning an error leaves
// the message for redelivery up to MaxAttempts, after which the
// consumer loop routes it to the topic's DLQ, §6/§7.
type Handler func(ctx context.Context, msg Message) error

// Message is the broker envelope handed to a Handler.
type Message struct {
	Topic        string
	Key          string
	Value        []byte
	Headers      map[string]string
	AttemptCount int
}

// KafkaBroker implements Broker on top of confluent-kafka-go.
type KafkaBroker struct {
	producer      *kafka.Producer
	consumer      *kafka.Consumer
	maxAttempts   int
	consumerGroup string
}

// Config configures a KafkaBroker, mirroring the teacher's
// ResilientClientConfig env-driven defaults pattern.
type Config struct {
	Brokers       string
	ConsumerGroup string
	ClientID      string
	MaxAttempts   int
}

// NewKafkaBroker opens a producer and consumer against cfg.Brokers.
func NewKafkaBroker(cfg Config) (*KafkaBroker, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         cfg.ClientID,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("broker: new producer: %w", err)
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.ConsumerGroup,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("broker: new consumer: %w", err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return &KafkaBroker{
		producer:      producer,
		consumer:      consumer,
		maxAttempts:   maxAttempts,
		consumerGroup: cfg.ConsumerGroup,
	}, nil
}

// Publish sends value to topic, keyed for partition affinity (e.g. by
// alert_id so all of an alert's messages land on the same partition).
func (b *KafkaBroker) Publish(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error {
	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	kHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kHeaders = append(kHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := b.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
		Headers:        kHeaders,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("broker: produce to %s: %w", topic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m := e.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("broker: delivery to %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	}
}

// PublishJSON marshals v and publishes it, for stage-to-stage envelope hops.
func (b *KafkaBroker) PublishJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("broker: marshal: %w", err)
	}
	return b.Publish(ctx, topic, key, body, headers)
}

// Consume subscribes to topics and dispatches each delivered message to
// handler, committing every offset once its message has been handled.
// A failed message is re-produced to the same topic with its
// x-attempt-count header incremented; once it has failed maxAttempts
// times it is published to the topic's DLQ instead, so a poison message
// does not block the partition forever.
func (b *KafkaBroker) Consume(ctx context.Context, topics []string, handler Handler) error {
	if err := b.consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("broker: subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev := b.consumer.Poll(200)
		if ev == nil {
			continue
		}

		switch msg := ev.(type) {
		case *kafka.Message:
			attempt := attemptFromHeaders(msg.Headers)
			headers := headersToMap(msg.Headers)

			err := handler(ctx, Message{
				Topic:        *msg.TopicPartition.Topic,
				Key:          string(msg.Key),
				Value:        msg.Value,
				Headers:      headers,
				AttemptCount: attempt,
			})
			if err != nil && attempt+1 < b.maxAttempts {
				retryHeaders := make([]kafka.Header, 0, len(msg.Headers)+1)
				for _, h := range msg.Headers {
					if h.Key != "x-attempt-count" {
						retryHeaders = append(retryHeaders, h)
					}
				}
				retryHeaders = append(retryHeaders, kafka.Header{Key: "x-attempt-count", Value: []byte(fmt.Sprint(attempt + 1))})
				retryMsg := *msg
				retryMsg.Headers = retryHeaders
				b.producer.Produce(&retryMsg, nil)
			} else if err != nil {
				dlq := DLQTopic(*msg.TopicPartition.Topic)
				b.Publish(ctx, dlq, string(msg.Key), msg.Value, headers)
			}

			if _, cerr := b.consumer.CommitMessage(msg); cerr != nil {
				return fmt.Errorf("broker: commit: %w", cerr)
			}

		case kafka.Error:
			if msg.IsFatal() {
				return fmt.Errorf("broker: fatal consumer error: %w", msg)
			}
		}
	}
}

func attemptFromHeaders(headers []kafka.Header) int {
	for _, h := range headers {
		if h.Key == "x-attempt-count" {
			var n int
			fmt.Sscanf(string(h.Value), "%d", &n)
			return n
		}
	}
	return 0
}

func headersToMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// Ping verifies broker connectivity by requesting cluster metadata,
// for use by a stage's /health endpoint (§6).
func (b *KafkaBroker) Ping(ctx context.Context) error {
	_, err := b.producer.GetMetadata(nil, false, 2000)
	if err != nil {
		return fmt.Errorf("broker: ping: %w", err)
	}
	return nil
}

// Close releases the producer and consumer, flushing in-flight deliveries.
func (b *KafkaBroker) Close() error {
	b.producer.Flush(5000)
	b.producer.Close()
	return b.consumer.Close()
}

// WaitForShutdown blocks until ctx is done, a convenience for cmd/
// mains that run Consume in a goroutine.
func WaitForShutdown(ctx context.Context, grace time.Duration) {
	<-ctx.Done()
	time.Sleep(grace)
}
