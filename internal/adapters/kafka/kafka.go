package kafka

import (
	"encoding/json"
	"fmt"

	"sketchxpad-service/internal/models"

	"github.com/IBM/sarama"
)

func newProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "sketchxpad-service"

	return sarama.NewSyncProducer(brokers, config)
}

// ChatArchiver mirrors persisted chat rows onto a Kafka topic for
// downstream consumers (analytics, search indexing). Messages are keyed
// by room id so a room's history stays in partition order.
type ChatArchiver struct {
	producer sarama.SyncProducer
	topic    string
}

func NewChatArchiver(brokers []string, topic string) (*ChatArchiver, error) {
	producer, err := newProducer(brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &ChatArchiver{producer: producer, topic: topic}, nil
}

func (a *ChatArchiver) Archive(chat *models.Chat) error {
	payload, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}

	_, _, err = a.producer.SendMessage(&sarama.ProducerMessage{
		Topic: a.topic,
		Key:   sarama.StringEncoder(chat.RoomID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish chat: %w", err)
	}
	return nil
}

func (a *ChatArchiver) Close() error {
	return a.producer.Close()
}
