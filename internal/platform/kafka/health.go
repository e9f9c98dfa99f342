// Package kafka holds broker-level helpers shared by the producer and the
// consumer: topic bootstrap and readiness checks.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultCheckTimeout = 5 * time.Second

// EnsureTopic creates topic when it does not exist yet. Replication must not
// exceed the broker count; -1 uses the broker default.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	resp, err := kadm.NewClient(client).CreateTopic(ctx, partitions, replication, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// HealthChecker reports ready when a broker answers and every watched topic
// has metadata with at least one partition.
type HealthChecker struct {
	admin   *kadm.Client
	topics  []string
	timeout time.Duration
}

func NewHealthChecker(client *kgo.Client, topics ...string) *HealthChecker {
	return &HealthChecker{
		admin:   kadm.NewClient(client),
		topics:  topics,
		timeout: defaultCheckTimeout,
	}
}

func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	brokers, err := h.admin.ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("list kafka brokers: %w", err)
	}
	if len(brokers) == 0 {
		return errors.New("no kafka brokers reachable")
	}
	if len(h.topics) == 0 {
		return nil
	}

	details, err := h.admin.ListTopics(ctx, h.topics...)
	if err != nil {
		return fmt.Errorf("describe kafka topics: %w", err)
	}
	for _, topic := range h.topics {
		d, ok := details[topic]
		switch {
		case !ok:
			return fmt.Errorf("kafka topic %s missing", topic)
		case d.Err != nil:
			return fmt.Errorf("kafka topic %s: %w", topic, d.Err)
		case len(d.Partitions) == 0:
			return fmt.Errorf("kafka topic %s has no partitions", topic)
		}
	}
	return nil
}

func (h *HealthChecker) Name() string {
	return "kafka"
}
