package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists events into audit_events. Appends are idempotent on
// Event.ID so redelivered Kafka records are harmless.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("parse audit event id %q: %w", event.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, timestamp, action, serial_number, outpoint, txid,
			certificate_type, subject, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		id,
		event.Timestamp,
		string(event.Action),
		event.SerialNumber,
		event.Outpoint,
		event.TxID,
		event.CertificateType,
		event.Subject,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySerial returns the history of one certificate, oldest first.
func (s *PostgresStore) ListBySerial(ctx context.Context, serial string) ([]Event, error) {
	return s.query(ctx, `WHERE serial_number = $1`, serial)
}

// ListByOutpoint returns events touching one commitment, oldest first.
func (s *PostgresStore) ListByOutpoint(ctx context.Context, outpoint string) ([]Event, error) {
	return s.query(ctx, `WHERE outpoint = $1`, outpoint)
}

func (s *PostgresStore) query(ctx context.Context, where string, arg string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, action, serial_number, outpoint, txid,
		       certificate_type, subject, reason, request_id
		FROM audit_events `+where+`
		ORDER BY timestamp ASC, id ASC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			id     uuid.UUID
			action string
		)
		if err := rows.Scan(&id, &e.Timestamp, &action, &e.SerialNumber, &e.Outpoint, &e.TxID,
			&e.CertificateType, &e.Subject, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = id.String()
		e.Action = Action(action)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
