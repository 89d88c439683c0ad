//go:build integration

package worker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"certflow/internal/platform/kafka/producer"
	"certflow/pkg/domain"
	"certflow/pkg/platform/audit"
	"certflow/pkg/platform/audit/outbox"
	outboxpostgres "certflow/pkg/platform/audit/outbox/store/postgres"
	"certflow/pkg/platform/audit/outbox/worker"
	"certflow/pkg/testutil/containers"
)

type WorkerIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	kafka    *containers.KafkaContainer
	store    *outboxpostgres.Store
	producer *producer.Producer
}

func TestWorkerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(WorkerIntegrationSuite))
}

func (s *WorkerIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.kafka = mgr.GetKafka(s.T())
	s.store = outboxpostgres.New(s.postgres.DB)

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *WorkerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *WorkerIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *WorkerIntegrationSuite) newWorker(topic string, poll time.Duration, batch int) *worker.Worker {
	return worker.New(s.store, s.producer,
		worker.WithTopic(topic),
		worker.WithPollInterval(poll),
		worker.WithBatchSize(batch),
	)
}

func (s *WorkerIntegrationSuite) stop(w *worker.Worker) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Require().NoError(w.Stop(ctx))
}

func (s *WorkerIntegrationSuite) pending() int64 {
	n, err := s.store.CountPending(context.Background())
	s.Require().NoError(err)
	return n
}

// An audit event appended through the audit adapter reaches Kafka keyed by
// the event id and is then marked processed.
func (s *WorkerIntegrationSuite) TestAuditEventRelayedToKafka() {
	ctx := context.Background()
	topic := "certflow-outbox-flow"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	event := audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Actor:     domain.MustIdentity("0x2222222222222222222222222222222222222222"),
		Action:    audit.ActionRequestApproved,
		Aggregate: audit.AggregateRequest,
		Subject:   "7",
		Decision:  audit.DecisionGranted,
		TxHash:    "0xabc",
	}
	s.Require().NoError(outbox.NewAuditStore(s.store).Append(ctx, event))
	s.Equal(int64(1), s.pending())

	w := s.newWorker(topic, 50*time.Millisecond, 10)
	w.Start()
	s.Eventually(func() bool { return s.pending() == 0 }, 5*time.Second, 50*time.Millisecond)
	s.stop(w)

	consumer, err := s.kafka.NewConsumer("certflow-outbox-flow-group", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == event.ID.String()
	})
	s.Require().NotNil(record)

	headers := make(map[string]string)
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal(audit.AggregateRequest, headers["aggregate_type"])
	s.Equal("7", headers["aggregate_id"])
	s.Equal(string(audit.ActionRequestApproved), headers["event_type"])

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(event.Actor, got.Actor)
	s.Equal("0xabc", got.TxHash)
}

func (s *WorkerIntegrationSuite) TestBatchesDrainedAcrossPolls() {
	ctx := context.Background()
	topic := "certflow-outbox-batches"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(map[string]int{"index": i})
		s.Require().NoError(s.store.Append(ctx, outbox.NewEntry(audit.AggregateCertificate, uuid.NewString(), "test_event", payload)))
	}

	w := s.newWorker(topic, 50*time.Millisecond, 2)
	w.Start()
	s.Eventually(func() bool { return s.pending() == 0 }, 10*time.Second, 50*time.Millisecond)
	s.stop(w)
}

// Stop drains entries the regular poll has not reached yet.
func (s *WorkerIntegrationSuite) TestDrainOnShutdown() {
	ctx := context.Background()
	topic := "certflow-outbox-drain"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	w := s.newWorker(topic, 10*time.Second, 10)
	w.Start()

	s.Require().NoError(s.store.Append(ctx, outbox.NewEntry(audit.AggregateSession, uuid.NewString(), "session_revoked", []byte("{}"))))
	time.Sleep(100 * time.Millisecond)
	s.Equal(int64(1), s.pending())

	s.stop(w)
	s.Equal(int64(0), s.pending())
}

// Two relays sharing the table publish every entry without a leftover.
func (s *WorkerIntegrationSuite) TestConcurrentWorkers() {
	ctx := context.Background()
	topic := "certflow-outbox-concurrent"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	for i := 0; i < 20; i++ {
		s.Require().NoError(s.store.Append(ctx, outbox.NewEntry(audit.AggregateUser, uuid.NewString(), "user_registered", []byte("{}"))))
	}

	w1 := s.newWorker(topic, 50*time.Millisecond, 5)
	w2 := s.newWorker(topic, 50*time.Millisecond, 5)
	w1.Start()
	w2.Start()
	s.Eventually(func() bool { return s.pending() == 0 }, 15*time.Second, 100*time.Millisecond)
	s.stop(w1)
	s.stop(w2)
}
