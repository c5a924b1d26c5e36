////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package events publishes collection events to a Redis channel as JSON.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
)

// PublishTimeout bounds every Redis call made by the notifier
const PublishTimeout = 2 * time.Second

// DefaultChannel is used when no channel is configured
const DefaultChannel = "aggregator:events"

// Message is the JSON payload published for one event
type Message struct {
	Type             string    `json:"type"`
	Variant          string    `json:"variant"`
	Collection       string    `json:"collection"`
	Actor            string    `json:"actor"`
	Timestamp        time.Time `json:"timestamp"`
	ParticipantCount uint64    `json:"participant_count,omitempty"`
	Aggregate        [][]byte  `json:"aggregate,omitempty"`
}

// NewMessage converts e into its published form.
func NewMessage(e collection.Event) Message {
	return Message{
		Type:             e.Type.String(),
		Variant:          string(e.Variant),
		Collection:       e.Collection.String(),
		Actor:            e.Actor.String(),
		Timestamp:        e.Timestamp.UTC(),
		ParticipantCount: e.ParticipantCount,
		Aggregate:        e.Aggregate,
	}
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier is a collection.Notifier publishing to a Redis channel.
// Publishing failures are logged and otherwise ignored.
type RedisNotifier struct {
	client  publisher
	closer  func() error
	channel string
}

// NewRedisNotifier connects to Redis and checks the connection.
func NewRedisNotifier(cfg RedisConfig) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "Unable to reach Redis at %s", cfg.Address)
	}

	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	jww.INFO.Printf("Publishing events to Redis channel %s at %s", channel,
		cfg.Address)
	return &RedisNotifier{client: client, closer: client.Close, channel: channel}, nil
}

// Notify publishes e.
func (rn *RedisNotifier) Notify(e collection.Event) {
	if err := rn.Publish(e); err != nil {
		jww.WARN.Printf("Failed to publish %s event for %s: %+v", e.Type,
			e.Collection.String(), err)
	}
}

// Publish sends e to the channel and reports any failure.
func (rn *RedisNotifier) Publish(e collection.Event) error {
	payload, err := json.Marshal(NewMessage(e))
	if err != nil {
		return errors.Wrap(err, "Unable to marshal event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	return rn.client.Publish(ctx, rn.channel, payload).Err()
}

// Close releases the Redis connection.
func (rn *RedisNotifier) Close() error {
	if rn.closer == nil {
		return nil
	}
	return rn.closer()
}
