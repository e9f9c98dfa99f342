package audit

import (
	"context"
	"log/slog"
)

// LogStore writes each event as a structured log line. It is the default
// sink when no broker is configured.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	attrs := []any{
		"event_id", event.ID,
		"action", event.Action,
		"request_id", event.RequestID,
	}
	for _, kv := range [][2]string{
		{"serial_number", event.SerialNumber},
		{"outpoint", event.Outpoint},
		{"txid", event.TxID},
		{"certificate_type", event.CertificateType},
		{"reason", event.Reason},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)
	return nil
}
