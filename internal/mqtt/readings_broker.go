package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Ingestor is the pipeline entrypoint the broker feeds.
type Ingestor interface {
	Ingest(ctx context.Context, sectorID string, values map[string]float64) error
}

// readingMessage is the device payload on the readings topic. It mirrors
// the HTTP submission body so devices can use either transport.
type readingMessage struct {
	SectorID   string             `json:"sectorId"`
	UserID     string             `json:"userId"`
	Parameters map[string]float64 `json:"parameters"`
}

// ReadingsBroker subscribes to the readings topic and routes each message
// into the ingestion pipeline.
type ReadingsBroker struct {
	client *Client
	ingest Ingestor
	topic  string
	qos    byte
	logger *zap.Logger

	// ctx bounds in-flight ingestions; canceled on process shutdown.
	ctx context.Context
}

func NewReadingsBroker(client *Client, ingest Ingestor, topic string, qos byte, logger *zap.Logger) *ReadingsBroker {
	return &ReadingsBroker{
		client: client,
		ingest: ingest,
		topic:  topic,
		qos:    qos,
		logger: logger,
	}
}

func (b *ReadingsBroker) Start(ctx context.Context) error {
	b.ctx = ctx
	if err := b.client.Subscribe(b.topic, b.qos, b.HandleMessage); err != nil {
		return err
	}
	b.logger.Info("Readings broker subscribed", zap.String("topic", b.topic))
	return nil
}

// HandleMessage processes one readings payload. Malformed payloads are
// rejected with an error; ingestion failures propagate so the client
// wrapper logs them with the topic attached.
func (b *ReadingsBroker) HandleMessage(_ string, payload []byte) error {
	var msg readingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed readings payload: %w", err)
	}
	if msg.SectorID == "" || len(msg.Parameters) == 0 {
		return fmt.Errorf("readings payload missing sectorId or parameters")
	}

	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := b.ingest.Ingest(ctx, msg.SectorID, msg.Parameters); err != nil {
		return fmt.Errorf("ingest failed for sector %s: %w", msg.SectorID, err)
	}
	b.logger.Debug("Reading ingested via MQTT",
		zap.String("sector_id", msg.SectorID),
		zap.Int("parameters", len(msg.Parameters)),
	)
	return nil
}
