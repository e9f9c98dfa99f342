package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"certifier/internal/platform/kafka/consumer"
)

// ConsumerHandler decodes audit records from Kafka and appends them to a Store.
type ConsumerHandler struct {
	store  Store
	logger *slog.Logger
}

func NewConsumerHandler(store Store, logger *slog.Logger) *ConsumerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerHandler{store: store, logger: logger}
}

// Handle skips malformed records so they do not block the partition. Store
// failures are returned and the record is redelivered.
func (h *ConsumerHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal audit record",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.ID == "" || event.Action == "" {
		h.logger.ErrorContext(ctx, "audit record missing id or action",
			"topic", msg.Topic,
			"offset", msg.Offset,
		)
		return nil
	}

	if err := h.store.Append(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to store audit event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("store audit event: %w", err)
	}
	return nil
}
