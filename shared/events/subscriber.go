package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errMalformedEntry = errors.New("stream entry has no decodable event")

// Handler applies one event to a projection. Returning an error leaves the
// entry pending so it is redelivered on the next start.
type Handler func(ctx context.Context, event Event) error

// Subscriber feeds one stream into a projection through a consumer group.
// Entries are acknowledged only after the handler succeeds.
type Subscriber struct {
	client   *redis.Client
	group    string
	consumer string
	stream   string
	handler  Handler
	count    int64
	block    time.Duration
}

type SubscriberConfig struct {
	Group    string
	Consumer string
	Stream   string
	Handler  Handler
	// BatchSize defaults to 10, BlockDuration to 5s.
	BatchSize     int64
	BlockDuration time.Duration
}

func NewSubscriber(client *redis.Client, cfg SubscriberConfig) *Subscriber {
	s := &Subscriber{
		client:   client,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		stream:   cfg.Stream,
		handler:  cfg.Handler,
		count:    cfg.BatchSize,
		block:    cfg.BlockDuration,
	}
	if s.count == 0 {
		s.count = 10
	}
	if s.block == 0 {
		s.block = 5 * time.Second
	}
	return s
}

// Start joins the consumer group, replays entries this consumer left
// unacknowledged, then follows new entries until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}
	log.Printf("Projection %s joined %s on %s", s.consumer, s.group, s.stream)

	if err := s.replayPending(ctx); err != nil && ctx.Err() == nil {
		log.Printf("Projection %s: replay of pending %s entries failed: %v", s.consumer, s.stream, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			log.Printf("Projection %s left %s", s.consumer, s.stream)
			return err
		}
		if err := s.follow(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Projection %s: read from %s failed: %v", s.consumer, s.stream, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", s.group, err)
	}
	return nil
}

// replayPending walks this consumer's pending list once. Entries that fail
// again stay pending.
func (s *Subscriber) replayPending(ctx context.Context) error {
	after := "0"
	for {
		msgs, err := s.read(ctx, after, -1)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		s.apply(ctx, msgs)
		after = msgs[len(msgs)-1].ID
	}
}

func (s *Subscriber) follow(ctx context.Context) error {
	msgs, err := s.read(ctx, ">", s.block)
	if err != nil {
		return err
	}
	s.apply(ctx, msgs)
	return nil
}

// read returns the entries for one XREADGROUP call; a negative block returns
// without waiting.
func (s *Subscriber) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, id},
		Count:    s.count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []redis.XMessage
	for _, stream := range res {
		msgs = append(msgs, stream.Messages...)
	}
	return msgs, nil
}

func (s *Subscriber) apply(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		err := s.dispatch(ctx, msg)
		if errors.Is(err, errMalformedEntry) {
			log.Printf("Projection %s: dropping %s entry %s: %v", s.consumer, s.stream, msg.ID, err)
		} else if err != nil {
			log.Printf("Projection %s: %s entry %s left pending: %v", s.consumer, s.stream, msg.ID, err)
			continue
		}
		if err := s.client.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil {
			log.Printf("Projection %s: ack of %s entry %s failed: %v", s.consumer, s.stream, msg.ID, err)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, msg redis.XMessage) error {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return errMalformedEntry
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEntry, err)
	}
	return s.handler(ctx, event)
}
