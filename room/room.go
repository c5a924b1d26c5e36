////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package room implements deadline bound vote rooms. The protocol owner
// declares the member slots of a room; every participant then submits one
// encrypted vote per member, which is folded homomorphically into a running
// total per member. Finalization publishes the totals and retires the room id.
package room

import (
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/elixxir/aggregator/storage"
	"gitlab.com/xx_network/primitives/id"
)

// DefaultVotingPeriod is how long after creation a room accepts votes
const DefaultVotingPeriod = 24 * time.Hour

// Vote is one encrypted value for one member slot
type Vote struct {
	Member     uint64
	Ciphertext []byte
}

// Manager owns the state machine of every room.
type Manager struct {
	owner    *id.ID
	store    *storage.Storage
	locker   *collection.Locker
	clock    collection.Clock
	notifier collection.Notifier
	period   time.Duration
}

// NewManager builds a Manager. Only owner may create and finalize rooms. A
// zero period selects DefaultVotingPeriod and a nil notifier drops events.
func NewManager(owner *id.ID, store *storage.Storage, clock collection.Clock,
	notifier collection.Notifier, period time.Duration) *Manager {
	if period <= 0 {
		period = DefaultVotingPeriod
	}
	if notifier == nil {
		notifier = collection.Notifiers{}
	}
	if clock == nil {
		clock = collection.SystemClock{}
	}
	return &Manager{
		owner:    owner.DeepCopy(),
		store:    store,
		locker:   collection.NewLocker(),
		clock:    clock,
		notifier: notifier,
		period:   period,
	}
}

// GetVotingPeriod returns how long rooms created by this manager accept
// votes. Existing rooms keep the deadline they were created with.
func (m *Manager) GetVotingPeriod() time.Duration {
	return m.period
}

// checkStatus fails with the state error for op if roomId is not in a
// status op is legal in.
func (m *Manager) checkStatus(op collection.Operation, roomId *id.ID) error {
	s, err := m.store.GetRoomStatus(roomId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to look up room %s", roomId)
	}
	if err = collection.Check(op, s); err != nil {
		return errors.WithMessagef(err, "Cannot %s room %s", op, roomId)
	}
	return nil
}

// Create opens roomId with one empty total per member. Only the owner may
// create rooms, and a room id can never be reused.
func (m *Manager) Create(caller, roomId *id.ID, memberIds []uint64) error {
	if !caller.Cmp(m.owner) {
		return errors.WithMessagef(collection.ErrNotOwner,
			"%s cannot create room %s", caller, roomId)
	}

	unlock := m.locker.Lock(roomId)
	defer unlock()

	if err := m.checkStatus(collection.Create, roomId); err != nil {
		return err
	}

	if len(memberIds) == 0 {
		return errors.WithMessagef(collection.ErrEmptyMembers, "room %s", roomId)
	}
	seen := make(map[uint64]struct{}, len(memberIds))
	for _, member := range memberIds {
		if _, ok := seen[member]; ok {
			return errors.WithMessagef(collection.ErrDuplicateMember,
				"member %d of room %s", member, roomId)
		}
		seen[member] = struct{}{}
	}

	now := m.clock.Now()
	room := &storage.Room{
		Id:       roomId.Marshal(),
		Owner:    caller.Marshal(),
		Created:  now,
		Deadline: now.Add(m.period),
		Members:  make([]storage.RoomMember, len(memberIds)),
	}
	for i, member := range memberIds {
		room.Members[i] = storage.RoomMember{
			RoomId:   room.Id,
			MemberId: member,
			Position: uint32(i),
		}
	}

	if err := m.store.InsertRoom(room); err != nil {
		return errors.WithMessagef(err, "Failed to store room %s", roomId)
	}
	jww.DEBUG.Printf("Created room %s with %d members", roomId, len(memberIds))

	m.notifier.Notify(collection.Event{
		Type:       collection.EventCreated,
		Variant:    collection.RoomVariant,
		Collection: *roomId,
		Actor:      *caller,
		Timestamp:  now,
	})
	return nil
}

// SubmitVotes folds one vote per member from caller into the totals of
// roomId. Every vote must be a ciphertext under pk, and a room only ever
// accepts votes under the key its first submission used.
func (m *Manager) SubmitVotes(caller, roomId *id.ID, votes []Vote,
	pk *paillier.PublicKey) error {
	unlock := m.locker.Lock(roomId)
	defer unlock()

	if err := m.checkStatus(collection.Submit, roomId); err != nil {
		return err
	}

	voted, err := m.store.HasParticipant(collection.RoomVariant, roomId, caller)
	if err != nil {
		return errors.WithMessagef(err, "Failed to look up votes of %s", caller)
	}
	if voted {
		return errors.WithMessagef(collection.ErrAlreadySubmitted,
			"%s already voted in room %s", caller, roomId)
	}

	room, err := m.store.GetRoom(roomId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to load room %s", roomId)
	}

	now := m.clock.Now()
	if now.After(room.Deadline) {
		return errors.WithMessagef(collection.ErrPeriodEnded,
			"room %s closed at %s", roomId, room.Deadline)
	}

	byMember, err := matchVotes(room, votes)
	if err != nil {
		return errors.WithMessagef(err, "room %s", roomId)
	}

	room.KeyFingerprint, err = collection.BindKey(room.KeyFingerprint, pk)
	if err != nil {
		return errors.WithMessagef(err, "room %s", roomId)
	}

	// Fold into a working copy; the stored room changes only on commit
	for i := range room.Members {
		member := &room.Members[i]
		total, err := fold(pk, member.Total, byMember[member.MemberId])
		if err != nil {
			return errors.WithMessagef(err, "vote for member %d of room %s",
				member.MemberId, roomId)
		}
		member.Total = total
	}

	seq, err := m.store.CountParticipants(collection.RoomVariant, roomId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to count voters of room %s",
			roomId)
	}
	participant := storage.NewParticipant(collection.RoomVariant, roomId,
		caller, seq)
	if err = m.store.RecordVotes(room, participant); err != nil {
		return errors.WithMessagef(err, "Failed to store votes for room %s",
			roomId)
	}
	jww.DEBUG.Printf("Accepted votes of %s for room %s", caller, roomId)

	m.notifier.Notify(collection.Event{
		Type:       collection.EventSubmitted,
		Variant:    collection.RoomVariant,
		Collection: *roomId,
		Actor:      *caller,
		Timestamp:  now,
	})
	return nil
}

// Finalize publishes the totals of roomId and deletes its working state.
// Members nobody voted for are published as the trivial encryption of zero.
func (m *Manager) Finalize(caller, roomId *id.ID) error {
	if !caller.Cmp(m.owner) {
		return errors.WithMessagef(collection.ErrNotOwner,
			"%s cannot finalize room %s", caller, roomId)
	}

	unlock := m.locker.Lock(roomId)
	defer unlock()

	if err := m.checkStatus(collection.Finalize, roomId); err != nil {
		return err
	}

	room, err := m.store.GetRoom(roomId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to load room %s", roomId)
	}
	count, err := m.store.CountParticipants(collection.RoomVariant, roomId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to count voters of room %s",
			roomId)
	}

	now := m.clock.Now()
	finalized := &storage.FinalizedRoom{
		Id:               room.Id,
		Owner:            room.Owner,
		Created:          room.Created,
		Deadline:         room.Deadline,
		Finalized:        now,
		ParticipantCount: count,
		Totals:           make([]storage.FinalizedTotal, len(room.Members)),
	}
	aggregate := make([][]byte, len(room.Members))
	for i, member := range room.Members {
		total := member.Total
		if len(total) == 0 {
			total = paillier.EncodeCiphertext(paillier.TrivialZero())
		}
		finalized.Totals[i] = storage.FinalizedTotal{
			RoomId:   room.Id,
			MemberId: member.MemberId,
			Position: member.Position,
			Total:    total,
		}
		aggregate[i] = total
	}

	if err = m.store.FinalizeRoom(finalized); err != nil {
		return errors.WithMessagef(err, "Failed to finalize room %s", roomId)
	}
	jww.INFO.Printf("Finalized room %s with %d voters", roomId, count)

	m.notifier.Notify(collection.Event{
		Type:             collection.EventFinalized,
		Variant:          collection.RoomVariant,
		Collection:       *roomId,
		Actor:            *caller,
		Timestamp:        now,
		ParticipantCount: count,
		Aggregate:        aggregate,
	})
	return nil
}
