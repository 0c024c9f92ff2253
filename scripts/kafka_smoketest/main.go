package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var ledgerEventTypes = []events.EventType{
	events.EventTypeTransactionCompleted,
	events.EventTypeAccountOpened,
	events.EventTypeAccountStatusChanged,
	events.EventTypeCardIssued,
	events.EventTypeCardStatusChanged,
	events.EventTypeUserRegistered,
}

// RunSmokeTest creates the ledger topics and pushes one TransactionCompleted
// event through the Kafka event bus, waiting for it to come back.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := envOr("BROKERS", "localhost:9093,localhost:9092")
	cfg := infraeventbus.DefaultKafkaEventBusConfig()
	cfg.GroupID = envOr("GROUP_ID", "bankledger-smoketest")
	cfg.TopicPrefix = envOr("TOPIC_PREFIX", cfg.TopicPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureTopics(ctx, logger, strings.Split(brokers, ",")[0], cfg.TopicPrefix); err != nil {
		return err
	}

	bus, err := infraeventbus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := &events.TransactionCompleted{
		TransactionID: uuid.New(),
		UserID:        uuid.New(),
		Kind:          "DEPOSIT",
		Amount:        decimal.RequireFromString("1.00"),
		Currency:      "RUB",
		OccurredAt:    time.Now().UTC(),
	}
	received := make(chan struct{}, 1)
	bus.Register(events.EventTypeTransactionCompleted, func(_ context.Context, evt events.Event) error {
		if tc, ok := evt.(*events.TransactionCompleted); ok && tc.TransactionID == want.TransactionID {
			select {
			case received <- struct{}{}:
			default:
			}
		}
		return nil
	})

	if err := bus.Emit(ctx, want); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "transaction_id", want.TransactionID)

	select {
	case <-received:
		logger.Info("kafka smoke test passed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event %s not consumed: %w", want.TransactionID, ctx.Err())
	}
}

func ensureTopics(ctx context.Context, logger *slog.Logger, broker, prefix string) error {
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", broker)
	if err != nil {
		logger.Error("dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()
	for _, et := range ledgerEventTypes {
		for _, t := range []string{infraeventbus.TopicName(prefix, et), infraeventbus.DLQTopicName(prefix, et)} {
			err = conn.CreateTopics(kafka.TopicConfig{
				Topic:             t,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
			if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
				logger.Error("create topic failed", "topic", t, "error", err)
				return err
			}
			logger.Info("topic ready", "topic", t)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
