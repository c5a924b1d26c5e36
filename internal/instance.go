////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/events"
	"gitlab.com/elixxir/aggregator/group"
	"gitlab.com/elixxir/aggregator/room"
	"gitlab.com/elixxir/aggregator/storage"
)

// Instance holds the long-lived state of the aggregator: storage, the event
// notifier and the managers of both protocols.
type Instance struct {
	definition *Definition
	storage    *storage.Storage
	notifier   collection.Notifier
	redis      *events.RedisNotifier
	rooms      *room.Manager
	groups     *group.Manager
}

// CreateInstance connects storage and the event publisher described by def
// and builds both managers on top of them.
func CreateInstance(def *Definition) (*Instance, error) {
	if def.Owner == nil {
		return nil, errors.New("Definition has no owner")
	}

	store, err := storage.NewStorage(def.DbUsername, def.DbPassword,
		def.DbName, def.DbAddress, def.DbPort, def.DevMode)
	if err != nil {
		return nil, errors.WithMessage(err, "Could not initialize storage")
	}

	notifiers := collection.Notifiers{collection.LogNotifier{}}
	var redisNotifier *events.RedisNotifier
	if def.Redis.Address != "" {
		redisNotifier, err = events.NewRedisNotifier(def.Redis)
		if err != nil {
			return nil, errors.WithMessage(err, "Could not initialize event publisher")
		}
		notifiers = append(notifiers, redisNotifier)
	} else {
		jww.INFO.Printf("No Redis address given, events are only logged")
	}

	i := newInstance(def, store, collection.SystemClock{}, notifiers)
	i.redis = redisNotifier
	return i, nil
}

// NewTestInstance builds an Instance on the map backend driven by clock.
// Events go to notifier only.
func NewTestInstance(def *Definition, clock collection.Clock,
	notifier collection.Notifier, face interface{}) *Instance {
	switch face.(type) {
	case *testing.T, *testing.M, *testing.B, *testing.PB:
		break
	default:
		jww.FATAL.Panicf("NewTestInstance is restricted to testing only. Got %T", face)
	}
	return newInstance(def, storage.NewMapStorage(), clock, notifier)
}

func newInstance(def *Definition, store *storage.Storage,
	clock collection.Clock, notifier collection.Notifier) *Instance {
	return &Instance{
		definition: def,
		storage:    store,
		notifier:   notifier,
		rooms: room.NewManager(def.Owner, store, clock, notifier,
			def.VotingPeriod),
		groups: group.NewManager(store, clock, notifier),
	}
}

func (i *Instance) GetDefinition() *Definition {
	return i.definition
}

func (i *Instance) GetStorage() *storage.Storage {
	return i.storage
}

func (i *Instance) GetNotifier() collection.Notifier {
	return i.notifier
}

// GetRoomManager returns the manager of vote rooms
func (i *Instance) GetRoomManager() *room.Manager {
	return i.rooms
}

// GetGroupManager returns the manager of score groups
func (i *Instance) GetGroupManager() *group.Manager {
	return i.groups
}

// Shutdown releases the connections held by the instance.
func (i *Instance) Shutdown() error {
	if i.redis != nil {
		return i.redis.Close()
	}
	return nil
}

func (i *Instance) String() string {
	return fmt.Sprintf("aggregator owned by %s", i.definition.Owner)
}
