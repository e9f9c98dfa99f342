package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestParseAcks(t *testing.T) {
	assert.Equal(t, kgo.NoAck(), parseAcks("0"))
	assert.Equal(t, kgo.LeaderAck(), parseAcks("1"))
	assert.Equal(t, kgo.LeaderAck(), parseAcks("leader"))
	assert.Equal(t, kgo.AllISRAcks(), parseAcks("all"))
	assert.Equal(t, kgo.AllISRAcks(), parseAcks(""))
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, splitBrokers(""))
}
