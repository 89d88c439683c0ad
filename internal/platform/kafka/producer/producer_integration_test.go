//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"certflow/internal/platform/kafka/producer"
	"certflow/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

// Produce returns only after the broker acknowledged the record.
func (s *ProducerIntegrationSuite) TestProduceDeliversRecord() {
	ctx := context.Background()
	topic := "certflow-produce-sync"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("request-7"),
		Value: []byte(`{"action":"certificate_request_submitted"}`),
	})
	s.Require().NoError(err)

	consumer, err := s.kafka.NewConsumer("certflow-produce-sync-group", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "request-7"
	})
	s.Require().NotNil(record)
	s.JSONEq(`{"action":"certificate_request_submitted"}`, string(record.Value))
}

func (s *ProducerIntegrationSuite) TestProducePreservesHeaders() {
	ctx := context.Background()
	topic := "certflow-produce-headers"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("institute-key"),
		Value: []byte("{}"),
		Headers: map[string]string{
			"aggregate_type": "institute",
			"aggregate_id":   "0x2222222222222222222222222222222222222222",
			"event_type":     "institute_authorized",
		},
	})
	s.Require().NoError(err)

	consumer, err := s.kafka.NewConsumer("certflow-produce-headers-group", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "institute-key"
	})
	s.Require().NotNil(record)

	headers := make(map[string]string)
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("institute", headers["aggregate_type"])
	s.Equal("0x2222222222222222222222222222222222222222", headers["aggregate_id"])
	s.Equal("institute_authorized", headers["event_type"])
}

// Redpanda runs with topic auto-creation, so the first produce creates it.
func (s *ProducerIntegrationSuite) TestProduceAutoCreatesTopic() {
	ctx := context.Background()
	topic := "certflow-auto-" + time.Now().Format("20060102150405")

	s.Require().NoError(s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("auto"),
		Value: []byte("{}"),
	}))

	consumer, err := s.kafka.NewConsumer("certflow-auto-group", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "auto"
	})
	s.NotNil(record)
}

func (s *ProducerIntegrationSuite) TestHealth() {
	s.NoError(s.producer.Health(context.Background()))
}
