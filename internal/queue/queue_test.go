package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiid2001/vsf-analyzer/internal/config"
	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

func TestCandidatePair_JSONRoundTrip(t *testing.T) {
	pair := CandidatePair{
		CandidateID: 7,
		AccountIDA:  "acct-a",
		AccountIDB:  "acct-b",
		RequestA: reqmodel.RequestInstance{
			InstanceID: "instance-a",
			Method:     "GET",
			URLPath:    "/accounts/1",
		},
		RequestB: reqmodel.RequestInstance{
			InstanceID: "instance-b",
			Method:     "GET",
			URLPath:    "/accounts/2",
		},
	}

	data, err := json.Marshal(pair)
	require.NoError(t, err)

	var decoded CandidatePair
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pair, decoded)
}

func TestNewReader_BuildsWithoutConnecting(t *testing.T) {
	r := NewReader(config.QueueConfig{
		Brokers:             []string{"localhost:9092"},
		CandidatePairsTopic: "candidate-pairs",
		ConsumerGroup:       "analyzer",
	})
	require.NotNil(t, r)
	assert.NoError(t, r.Close())
}

func TestNewWriter_BuildsWithoutConnecting(t *testing.T) {
	w := NewWriter(config.QueueConfig{
		Brokers:             []string{"localhost:9092"},
		SwapCandidatesTopic: "swap-candidates",
		PublishPerSecond:    50,
	})
	require.NotNil(t, w)
	assert.NoError(t, w.Close())
}
