// Package kafka publishes completed histogram tables to a Kafka topic so
// downstream consumers can pick up results as stations finish, without
// waiting for the archive files.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ohaynold/artaf/internal/config"
	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/pipeline"
)

// Writer produces flushed histogram tables to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// flushEnvelope is the wire form of one completed table.
type flushEnvelope struct {
	Station      string             `json:"station"`
	Job          string             `json:"job"`
	AscendingKey []string           `json:"ascending_key"`
	Records      []histogram.Record `json:"records"`
}

// PublishFlush serializes one completed table as a single message keyed by
// station and job, so consumers can compact per table.
func (w *Writer) PublishFlush(ctx context.Context, m pipeline.FlushMessage) error {
	msg, err := serializeFlush(m)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// serializeFlush marshals one flush into a Kafka message.
func serializeFlush(m pipeline.FlushMessage) (kafkago.Message, error) {
	data, err := json.Marshal(flushEnvelope{
		Station:      m.Station,
		Job:          m.Job,
		AscendingKey: m.AscendingKey,
		Records:      m.Records,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flush: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.Station + "/" + m.Job),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "ascending_key", Value: []byte(strings.Join(m.AscendingKey, "/"))},
		},
	}, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
