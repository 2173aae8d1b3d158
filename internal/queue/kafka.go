package queue

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes jobs onto a single topic keyed by job key.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (k *Kafka) Enqueue(ctx context.Context, key string, payload any) error {
	const op = "queue.kafka.Enqueue"

	job, err := NewJob(key, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := k.publish(ctx, job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (k *Kafka) publish(ctx context.Context, job Job) error {
	value, err := encodeJob(job)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "job", Value: []byte(job.Key)},
		},
	})
}

func (k *Kafka) Close() error {
	const op = "queue.kafka.Close"

	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// KafkaConsumer reads jobs as part of a consumer group. Offsets are committed
// on Ack; Nack republishes the job with a bumped attempt count and then commits
// so the partition keeps moving.
type KafkaConsumer struct {
	reader   *kafka.Reader
	producer *Kafka
}

func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		producer: NewKafka(brokers, topic),
	}
}

func (c *KafkaConsumer) Receive(ctx context.Context) (Delivery, error) {
	const op = "queue.kafka.Receive"

	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Delivery{}, ctxErr
		}
		return Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	job, err := decodeJob(msg.Value)
	if err != nil {
		if commitErr := c.reader.CommitMessages(ctx, msg); commitErr != nil {
			return Delivery{}, fmt.Errorf("%s: %w", op, commitErr)
		}
		return Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	return Delivery{
		Job: job,
		Ack: func(ctx context.Context) error {
			return c.reader.CommitMessages(ctx, msg)
		},
		Nack: func(ctx context.Context) error {
			retry := job
			retry.Attempts++
			if err := c.producer.publish(ctx, retry); err != nil {
				return err
			}
			return c.reader.CommitMessages(ctx, msg)
		},
	}, nil
}

func (c *KafkaConsumer) Close() error {
	const op = "queue.kafka.Consumer.Close"

	readerErr := c.reader.Close()
	writerErr := c.producer.Close()
	if readerErr != nil {
		return fmt.Errorf("%s: %w", op, readerErr)
	}
	return writerErr
}
