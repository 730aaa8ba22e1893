package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaNotifier produces one record per message, keyed by the recipient's user id.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(_ context.Context, to Recipient, subject, body string) error {
	value, err := json.Marshal(Message{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(to.UserID.String()),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := n.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send kafka message: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
