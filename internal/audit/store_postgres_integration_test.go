//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"certifier/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) TestHistoryBySerial() {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issued := Event{ID: uuid.NewString(), Timestamp: base, Action: ActionCertificateIssued, SerialNumber: "abc123", Outpoint: "tx1.0", TxID: "tx1"}
	revoked := Event{ID: uuid.NewString(), Timestamp: base.Add(time.Minute), Action: ActionCertificateRevoked, SerialNumber: "abc123", Outpoint: "tx1.0", TxID: "tx2"}
	other := Event{ID: uuid.NewString(), Timestamp: base, Action: ActionCertificateIssued, SerialNumber: "zzz"}

	for _, e := range []Event{revoked, other, issued} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	history, err := s.store.ListBySerial(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(ActionCertificateIssued, history[0].Action)
	s.Equal(ActionCertificateRevoked, history[1].Action)
	s.Equal("tx2", history[1].TxID)

	byOutpoint, err := s.store.ListByOutpoint(s.ctx, "tx1.0")
	s.Require().NoError(err)
	s.Len(byOutpoint, 2)
}

func (s *PostgresStoreSuite) TestAppendIsIdempotent() {
	e := Event{ID: uuid.NewString(), Timestamp: time.Now().UTC(), Action: ActionOrphanReclaimed, Outpoint: "tx9.0"}
	s.Require().NoError(s.store.Append(s.ctx, e))
	s.Require().NoError(s.store.Append(s.ctx, e))

	events, err := s.store.ListByOutpoint(s.ctx, "tx9.0")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresStoreSuite) TestRejectsNonUUID() {
	err := s.store.Append(s.ctx, Event{ID: "not-a-uuid", Action: ActionCertificateIssued})
	s.Error(err)
}
