////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package collection

import (
	"fmt"
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/id"
)

// Variant names the protocol a collection belongs to
type Variant string

const (
	RoomVariant  Variant = "room"
	GroupVariant Variant = "group"
)

// EventType identifies what happened to a collection
type EventType uint8

const (
	EventCreated EventType = iota
	EventSubmitted
	EventFinalized
)

func (et EventType) String() string {
	switch et {
	case EventCreated:
		return "CollectionCreated"
	case EventSubmitted:
		return "SubmissionAccepted"
	case EventFinalized:
		return "CollectionFinalized"
	default:
		return fmt.Sprintf("UNKNOWN EVENT: %d", et)
	}
}

// Event is emitted after a mutation has been committed. Aggregate and
// ParticipantCount are only set on EventFinalized; Aggregate then holds one
// ciphertext per room member, or the single pooled sum of a group.
type Event struct {
	Type             EventType
	Variant          Variant
	Collection       id.ID
	Actor            id.ID
	Timestamp        time.Time
	ParticipantCount uint64
	Aggregate        [][]byte
}

// Notifier receives committed events. Implementations must not block for
// long and cannot veto the event.
type Notifier interface {
	Notify(e Event)
}

// Notifiers fans an event out to every contained Notifier in order.
type Notifiers []Notifier

// Notify forwards e to each Notifier.
func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		n.Notify(e)
	}
}

// LogNotifier writes events to the log.
type LogNotifier struct{}

// Notify logs e at INFO level.
func (LogNotifier) Notify(e Event) {
	switch e.Type {
	case EventFinalized:
		jww.INFO.Printf("[%s] %s %s: %d participants, %d aggregate values",
			e.Type, e.Variant, e.Collection.String(), e.ParticipantCount,
			len(e.Aggregate))
	default:
		jww.INFO.Printf("[%s] %s %s by %s at %s", e.Type, e.Variant,
			e.Collection.String(), e.Actor.String(), e.Timestamp)
	}
}
