////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

type mockPublisher struct {
	channel  string
	messages [][]byte
	err      error
}

func (mp *mockPublisher) Publish(_ context.Context, channel string,
	message interface{}) *redis.IntCmd {
	mp.channel = channel
	mp.messages = append(mp.messages, message.([]byte))
	return redis.NewIntResult(1, mp.err)
}

func testEvent(t *testing.T) collection.Event {
	return collection.Event{
		Type:             collection.EventFinalized,
		Variant:          collection.RoomVariant,
		Collection:       *id.NewIdFromString("room", id.Generic, t),
		Actor:            *id.NewIdFromString("owner", id.User, t),
		Timestamp:        time.Unix(1650000000, 0),
		ParticipantCount: 2,
		Aggregate:        [][]byte{{1, 2}, {3}},
	}
}

// Happy path
func TestRedisNotifier_Publish(t *testing.T) {
	mp := &mockPublisher{}
	rn := &RedisNotifier{client: mp, channel: "test"}
	e := testEvent(t)

	if err := rn.Publish(e); err != nil {
		t.Fatalf("Publish failed: %+v", err)
	}
	if mp.channel != "test" || len(mp.messages) != 1 {
		t.Fatalf("Nothing published to the channel")
	}

	var received Message
	if err := json.Unmarshal(mp.messages[0], &received); err != nil {
		t.Fatalf("Payload is not JSON: %+v", err)
	}
	if received.Type != "CollectionFinalized" || received.Variant != "room" {
		t.Errorf("Unexpected type or variant: %+v", received)
	}
	if received.Collection != e.Collection.String() ||
		received.Actor != e.Actor.String() {
		t.Errorf("Ids not encoded: %+v", received)
	}
	if received.ParticipantCount != 2 || len(received.Aggregate) != 2 ||
		!bytes.Equal(received.Aggregate[0], []byte{1, 2}) {
		t.Errorf("Aggregate not encoded: %+v", received)
	}
	if !received.Timestamp.Equal(e.Timestamp) {
		t.Errorf("Timestamp not encoded.\n\treceived: %s\n\texpected: %s",
			received.Timestamp, e.Timestamp)
	}
}

// Publishing failures surface from Publish but never from Notify
func TestRedisNotifier_Notify_Error(t *testing.T) {
	mp := &mockPublisher{err: errors.New("connection refused")}
	rn := &RedisNotifier{client: mp, channel: DefaultChannel}

	if err := rn.Publish(testEvent(t)); err == nil {
		t.Errorf("Publish hid a failure")
	}
	rn.Notify(testEvent(t))
	if len(mp.messages) != 2 {
		t.Errorf("Notify did not attempt to publish")
	}
}

// Submission events carry no aggregate
func TestNewMessage_Submitted(t *testing.T) {
	e := testEvent(t)
	e.Type = collection.EventSubmitted
	e.ParticipantCount = 0
	e.Aggregate = nil

	payload, _ := json.Marshal(NewMessage(e))
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("Unmarshal failed: %+v", err)
	}
	if _, ok := fields["aggregate"]; ok {
		t.Errorf("Submission event has an aggregate: %s", payload)
	}
	if fields["type"] != "SubmissionAccepted" {
		t.Errorf("Unexpected type %v", fields["type"])
	}
}
