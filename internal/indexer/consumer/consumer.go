// Package consumer reads document events from Kafka and refreshes the
// served index. Every event triggers a full reload from the document table;
// events already reflected in the current snapshot are skipped.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/kafka"
)

// Engine is the part of indexer.Engine the consumer drives.
type Engine interface {
	Current() *indexer.Snapshot
	Reload(ctx context.Context) (*indexer.Snapshot, error)
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that reloads engine for each
// DocumentEvent. Undecodable messages are logged and acknowledged so they do
// not block the partition.
func HandleMessage(engine Engine) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		if upToDate(engine.Current(), event) {
			logger.Debug("document already indexed", "doc_id", event.DocumentID)
			return nil
		}

		snap, err := engine.Reload(ctx)
		if err != nil {
			return fmt.Errorf("reloading index for document %s: %w", event.DocumentID, err)
		}
		logger.Info("index reloaded for document",
			"doc_id", event.DocumentID,
			"generation", snap.Generation,
		)
		return nil
	}
}

// upToDate reports whether snap already serves the event's document text.
func upToDate(snap *indexer.Snapshot, event ingestion.DocumentEvent) bool {
	if snap == nil || event.ContentHash == "" {
		return false
	}
	text, ok := snap.Corpus[event.DocumentID]
	return ok && corpus.ContentHash(text) == event.ContentHash
}
