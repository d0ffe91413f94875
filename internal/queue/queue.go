// Package queue moves RequestInstance pairs in from the out-of-scope
// URL-distance matcher and swap-candidate results out to the out-of-scope
// swap-execution worker, over Kafka.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"

	"github.com/saiid2001/vsf-analyzer/internal/config"
	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

// CandidatePair is one message consumed from the candidate-pairs topic.
type CandidatePair struct {
	CandidateID int64                    `json:"candidate_id"`
	AccountIDA  string                   `json:"account_id_a"`
	AccountIDB  string                   `json:"account_id_b"`
	RequestA    reqmodel.RequestInstance `json:"request_a"`
	RequestB    reqmodel.RequestInstance `json:"request_b"`
}

// Reader consumes CandidatePair messages from the candidate-pairs topic.
type Reader struct {
	r *kafka.Reader
}

// NewReader builds a Reader bound to cfg's candidate-pairs topic.
func NewReader(cfg config.QueueConfig) *Reader {
	return &Reader{r: kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.CandidatePairsTopic,
		GroupID: cfg.ConsumerGroup,
	})}
}

// Next blocks until the next candidate pair is available or ctx is done.
func (r *Reader) Next(ctx context.Context) (CandidatePair, error) {
	msg, err := r.r.ReadMessage(ctx)
	if err != nil {
		return CandidatePair{}, fmt.Errorf("queue: reading candidate pair: %w", err)
	}
	var pair CandidatePair
	if err := json.Unmarshal(msg.Value, &pair); err != nil {
		return CandidatePair{}, fmt.Errorf("queue: decoding candidate pair: %w", err)
	}
	return pair, nil
}

// Close releases the underlying consumer connection.
func (r *Reader) Close() error {
	return r.r.Close()
}

// Writer publishes swap-candidate messages to the swap-candidates topic,
// rate-limited so a batch driver cannot overwhelm the downstream
// swap-execution worker.
type Writer struct {
	w       *kafka.Writer
	limiter *rate.Limiter
}

// NewWriter builds a Writer bound to cfg's swap-candidates topic, limited
// to cfg.PublishPerSecond messages per second.
func NewWriter(cfg config.QueueConfig) *Writer {
	return &Writer{
		w: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.SwapCandidatesTopic,
			Balancer: &kafka.LeastBytes{},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.PublishPerSecond), 1),
	}
}

// Publish sends one JSON-encoded message, keyed by candidateID, waiting on
// the rate limiter before writing.
func (w *Writer) Publish(ctx context.Context, candidateID int64, payload any) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("queue: waiting for publish rate limiter: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: encoding payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", candidateID)),
		Value: data,
		Time:  time.Now(),
	}
	if err := w.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("queue: publishing candidate %d: %w", candidateID, err)
	}
	return nil
}

// Close flushes and releases the underlying producer connection.
func (w *Writer) Close() error {
	return w.w.Close()
}
