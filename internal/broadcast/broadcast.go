// Package broadcast mirrors already-published top-of-book rows to a
// Kafka topic on a best-effort, non-blocking basis. It is egress only:
// nothing here ever participates in pipeline correctness or
// termination.
package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Row is the JSON shape mirrored to the broadcast topic.
type Row struct {
	TsUs   uint64 `json:"ts_us"`
	Symbol string `json:"symbol"`
	BidPx  int64  `json:"bid_px,omitempty"`
	BidSz  uint32 `json:"bid_sz,omitempty"`
	AskPx  int64  `json:"ask_px,omitempty"`
	AskSz  uint32 `json:"ask_sz,omitempty"`
}

// Sink writes Rows to Kafka from a dedicated goroutine over a bounded
// channel. When the channel is full the oldest pending row is dropped
// to make room, rather than blocking the caller.
type Sink struct {
	writer  *kafka.Writer
	log     *zap.Logger
	queue   chan Row
	dropped uint64
	done    chan struct{}
}

// NewSink constructs a Sink publishing to topic on the given brokers
// and starts its background send loop.
func NewSink(brokers []string, topic string, log *zap.Logger) *Sink {
	s := &Sink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
		log:   log,
		queue: make(chan Row, 4096),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Publish enqueues row for broadcast. It never blocks: if the queue
// is full, the oldest pending row is dropped and counted.
func (s *Sink) Publish(row Row) {
	select {
	case s.queue <- row:
	default:
		select {
		case <-s.queue:
			s.dropped++
		default:
		}
		select {
		case s.queue <- row:
		default:
		}
	}
}

// Dropped returns the number of rows dropped so far due to a full queue.
func (s *Sink) Dropped() uint64 { return s.dropped }

func (s *Sink) run() {
	ctx := context.Background()
	for {
		select {
		case row, ok := <-s.queue:
			if !ok {
				return
			}
			payload, err := json.Marshal(row)
			if err != nil {
				continue
			}
			msg := kafka.Message{Key: []byte(row.Symbol), Value: payload}
			if err := s.writer.WriteMessages(ctx, msg); err != nil {
				s.log.Debug("broadcast: send failed", zap.Error(err))
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the send loop and closes the underlying Kafka writer.
func (s *Sink) Close() error {
	close(s.done)
	return s.writer.Close()
}
