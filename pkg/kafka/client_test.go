package kafka

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/angelmondragon/ordering-backend/pkg/config"
)

func TestNewClientRequiresBrokers(t *testing.T) {
	if _, err := NewClient(context.Background(), config.KafkaConfig{Brokers: []string{" ", ""}}, nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestPublisherReusesWriterPerTopic(t *testing.T) {
	c := &Client{brokers: []string{"localhost:9092"}, writers: map[string]*kafkago.Writer{}}
	first := c.Publisher("kitchen.orders")
	second := c.Publisher(" kitchen.orders ")
	if first == nil || first != second {
		t.Fatalf("expected the same writer for the same topic")
	}
	if first.Topic != "kitchen.orders" {
		t.Fatalf("unexpected topic %q", first.Topic)
	}
	if c.Publisher("") != nil {
		t.Fatalf("expected nil writer for blank topic")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
