package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureIngestor struct {
	ctx      context.Context
	sectorID string
	values   map[string]float64
	err      error
}

func (c *captureIngestor) Ingest(ctx context.Context, sectorID string, values map[string]float64) error {
	c.ctx = ctx
	c.sectorID = sectorID
	c.values = values
	return c.err
}

func TestHandleMessage_RoutesIntoIngest(t *testing.T) {
	ingest := &captureIngestor{}
	broker := NewReadingsBroker(nil, ingest, "verdantia/readings", 1, zap.NewNop())

	err := broker.HandleMessage("verdantia/readings",
		[]byte(`{"sectorId":"sector-1","userId":"user-1","parameters":{"pH":6.5,"tds":810}}`))

	require.NoError(t, err)
	assert.Equal(t, "sector-1", ingest.sectorID)
	assert.Equal(t, map[string]float64{"pH": 6.5, "tds": 810}, ingest.values)
}

func TestHandleMessage_UsesShutdownContext(t *testing.T) {
	ingest := &captureIngestor{}
	broker := NewReadingsBroker(nil, ingest, "verdantia/readings", 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	broker.ctx = ctx
	cancel()

	err := broker.HandleMessage("verdantia/readings",
		[]byte(`{"sectorId":"sector-1","parameters":{"pH":6.5}}`))

	require.NoError(t, err)
	require.NotNil(t, ingest.ctx)
	assert.ErrorIs(t, ingest.ctx.Err(), context.Canceled)
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	ingest := &captureIngestor{}
	broker := NewReadingsBroker(nil, ingest, "verdantia/readings", 1, zap.NewNop())

	err := broker.HandleMessage("verdantia/readings", []byte(`{not json`))

	assert.Error(t, err)
	assert.Empty(t, ingest.sectorID)
}

func TestHandleMessage_MissingSector(t *testing.T) {
	broker := NewReadingsBroker(nil, &captureIngestor{}, "verdantia/readings", 1, zap.NewNop())

	err := broker.HandleMessage("verdantia/readings", []byte(`{"parameters":{"pH":6.5}}`))

	assert.Error(t, err)
}

func TestHandleMessage_IngestErrorPropagates(t *testing.T) {
	ingest := &captureIngestor{err: errors.New("boom")}
	broker := NewReadingsBroker(nil, ingest, "verdantia/readings", 1, zap.NewNop())

	err := broker.HandleMessage("verdantia/readings",
		[]byte(`{"sectorId":"sector-1","parameters":{"pH":6.5}}`))

	assert.Error(t, err)
}
