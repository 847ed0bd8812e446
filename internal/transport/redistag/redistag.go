// Package redistag serves the tag interface from a Redis hash. It exists for
// bench work: a soft controller (or a human with redis-cli) can close the
// loop against the simulator without a PLC or an OPC UA server on the
// network. Each tag is a field of one hash; reads HGET, writes HSET.
package redistag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/argonur/S7PLC-PID-simulation/internal/transport"
)

// Dialer connects to a Redis instance. Key names the hash holding the tags;
// Fields maps logical tag names (e.g. "MV") to hash field names.
type Dialer struct {
	Addr   string
	Key    string
	Fields map[string]string
}

// announce is published on <key>:announce when a session comes up, so a
// bench controller can discover a fresh simulator run.
type announce struct {
	ID        string `json:"id"`
	Service   string `json:"service"`
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// Dial verifies connectivity with a ping and announces the session.
func (d *Dialer) Dial(ctx context.Context) (transport.Session, error) {
	rdb := redis.NewClient(&redis.Options{Addr: d.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", d.Addr, err)
	}

	msg, _ := json.Marshal(announce{
		ID:        uuid.New().String(),
		Service:   "plantsim",
		Key:       d.Key,
		Timestamp: time.Now().UnixMilli(),
	})
	if err := rdb.Publish(ctx, d.Key+":announce", msg).Err(); err != nil {
		// Discovery only; a missing subscriber is not a dial failure.
		log.Printf("redistag: announce publish failed: %v", err)
	}

	fields := make(map[string]string, len(d.Fields))
	for tag, field := range d.Fields {
		fields[tag] = field
	}
	return &session{rdb: rdb, key: d.Key, fields: fields}, nil
}

type session struct {
	rdb    *redis.Client
	key    string
	fields map[string]string
}

func (s *session) field(tag string) (string, error) {
	f, ok := s.fields[tag]
	if !ok {
		return "", fmt.Errorf("%w: %s", transport.ErrUnknownTag, tag)
	}
	return f, nil
}

// Read returns the tag's value. A field the controller has not written yet
// reads as 0.0 rather than an error, so the loop can start before the
// controller does.
func (s *session) Read(ctx context.Context, tag string) (float64, error) {
	f, err := s.field(tag)
	if err != nil {
		return 0, err
	}
	v, err := s.rdb.HGet(ctx, s.key, f).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", tag, err)
	}
	return v, nil
}

func (s *session) Write(ctx context.Context, tag string, value float64) error {
	f, err := s.field(tag)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, s.key, f, value).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", tag, err)
	}
	return nil
}

func (s *session) Close(context.Context) error {
	return s.rdb.Close()
}
