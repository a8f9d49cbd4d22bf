package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"fundraiser/internal/domain"
)

const defaultStreamMaxLen = 100_000

// Stream publishes events to a Redis stream with XADD.
type Stream struct {
	client  *redis.Client
	stream  string
	maxLen  int64
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewStream(client *redis.Client, stream string, logger zerolog.Logger) *Stream {
	return &Stream{
		client:  client,
		stream:  stream,
		maxLen:  defaultStreamMaxLen,
		timeout: 2 * time.Second,
		logger:  logger.With().Str("component", "stream").Str("stream", stream).Logger(),
		now:     time.Now,
	}
}

func (s *Stream) Notify(ctx context.Context, evt domain.Event) {
	if _, err := s.Publish(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("event", evt.EventType()).Msg("publish event")
	}
}

// Publish appends evt to the stream and returns the entry id.
func (s *Stream) Publish(ctx context.Context, evt domain.Event) (string, error) {
	env, err := Encode(evt, s.now())
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":       env.Type,
			"data":       string(env.Data),
			"emitted_at": env.EmittedAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return id, nil
}

// Delivery is one stream entry read through a consumer group.
type Delivery struct {
	ID string
	Envelope
}

// Consumer reads the event stream through a consumer group and acknowledges
// every entry its handler accepted.
type Consumer struct {
	client *redis.Client
	stream string
	group  string
	name   string
	count  int64
	block  time.Duration
	logger zerolog.Logger
}

func NewConsumer(client *redis.Client, stream, group, name string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		client: client,
		stream: stream,
		group:  group,
		name:   name,
		count:  50,
		block:  5 * time.Second,
		logger: logger.With().Str("component", "consumer").Str("stream", stream).Str("group", group).Logger(),
	}
}

// Ensure creates the consumer group, and the stream with it, when missing.
func (c *Consumer) Ensure(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s: %w", c.group, err)
	}
	return nil
}

// Poll reads one batch of new entries and hands each to handle. Entries the
// handler fails stay pending for a later claim. It returns how many entries
// were acknowledged.
func (c *Consumer) Poll(ctx context.Context, handle func(context.Context, Delivery) error) (int, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    c.count,
		Block:    c.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("xreadgroup %s: %w", c.stream, err)
	}

	acked := 0
	for _, st := range streams {
		for _, msg := range st.Messages {
			d, err := decode(msg)
			if err != nil {
				c.logger.Warn().Err(err).Str("id", msg.ID).Msg("dropping malformed entry")
			} else if err := handle(ctx, d); err != nil {
				c.logger.Error().Err(err).Str("id", msg.ID).Str("event", d.Type).Msg("handle entry")
				continue
			}
			if err := c.client.XAck(ctx, c.stream, c.group, msg.ID).Err(); err != nil {
				return acked, fmt.Errorf("xack %s: %w", msg.ID, err)
			}
			acked++
		}
	}
	return acked, nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, Delivery) error) error {
	for {
		if _, err := c.Poll(ctx, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error().Err(err).Msg("poll stream")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func decode(msg redis.XMessage) (Delivery, error) {
	typ, _ := msg.Values["type"].(string)
	data, _ := msg.Values["data"].(string)
	if typ == "" || !json.Valid([]byte(data)) {
		return Delivery{}, fmt.Errorf("entry %s has no event", msg.ID)
	}
	d := Delivery{ID: msg.ID, Envelope: Envelope{Type: typ, Data: json.RawMessage(data)}}
	if at, ok := msg.Values["emitted_at"].(string); ok {
		d.EmittedAt, _ = time.Parse(time.RFC3339Nano, at)
	}
	return d, nil
}
