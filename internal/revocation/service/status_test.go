package service

import (
	"errors"
	"strings"

	"certifier/internal/revocation/models"
)

func (s *ServiceSuite) TestIsRevoked() {
	s.Run("Given the legacy sentinel When checked Then it is never revoked", func() {
		s.False(s.service.IsRevoked(s.ctx, models.LegacyOutpoint.String()))
		s.False(s.service.IsRevoked(s.ctx, strings.Repeat("00", 32)+".0"))
	})

	s.Run("Given a live record When checked Then it is not revoked", func() {
		s.put("abc123", commitmentAt("tx1", 1))
		s.False(s.service.IsRevoked(s.ctx, "tx1.0"))
	})

	s.Run("Given no record When checked Then it is revoked", func() {
		s.True(s.service.IsRevoked(s.ctx, "tx1.1"))
		s.True(s.service.IsRevoked(s.ctx, "unknown"))
	})

	s.Run("Given an upper-case txid When checked Then it matches the stored record", func() {
		txid := strings.Repeat("ab", 32)
		s.put("def456", commitmentAt(txid, 2))
		s.False(s.service.IsRevoked(s.ctx, strings.ToUpper(txid)+".0"))
	})
}

func (s *ServiceSuite) TestIsRevokedUnreadableStore() {
	s.put("abc123", commitmentAt("tx1", 1))
	s.backend.FailLoad(errors.New("connection refused"))

	s.True(s.service.IsRevoked(s.ctx, "tx1.0"))
	s.False(s.service.IsRevoked(s.ctx, models.LegacyOutpoint.String()))
}

func (s *ServiceSuite) TestIsRevokedCorruptStore() {
	s.backend.Seed([]byte("{not json"))
	s.True(s.service.IsRevoked(s.ctx, "tx1.0"))
}
