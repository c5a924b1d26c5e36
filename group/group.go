////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package group implements score pools. Any identity may open a group and
// becomes its owner. Participants submit one encrypted score each; at
// finalization the owner publishes the homomorphic sum of all scores together
// with their count, and the average is taken after decryption.
package group

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/elixxir/aggregator/storage"
	"gitlab.com/xx_network/crypto/large"
	"gitlab.com/xx_network/primitives/id"
)

// Manager owns the state machine of every group.
type Manager struct {
	store    *storage.Storage
	locker   *collection.Locker
	clock    collection.Clock
	notifier collection.Notifier
}

// NewManager builds a Manager. A nil notifier drops events.
func NewManager(store *storage.Storage, clock collection.Clock,
	notifier collection.Notifier) *Manager {
	if notifier == nil {
		notifier = collection.Notifiers{}
	}
	if clock == nil {
		clock = collection.SystemClock{}
	}
	return &Manager{
		store:    store,
		locker:   collection.NewLocker(),
		clock:    clock,
		notifier: notifier,
	}
}

func (m *Manager) checkStatus(op collection.Operation, groupId *id.ID) error {
	s, err := m.store.GetGroupStatus(groupId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to look up group %s", groupId)
	}
	if err = collection.Check(op, s); err != nil {
		return errors.WithMessagef(err, "Cannot %s group %s", op, groupId)
	}
	return nil
}

// CreateGroup opens groupId owned by caller. A group id can never be reused,
// whether the group is active or already finalized.
func (m *Manager) CreateGroup(caller, groupId *id.ID) error {
	unlock := m.locker.Lock(groupId)
	defer unlock()

	if err := m.checkStatus(collection.Create, groupId); err != nil {
		return err
	}

	now := m.clock.Now()
	group := &storage.Group{
		Id:      groupId.Marshal(),
		Owner:   caller.Marshal(),
		Created: now,
	}
	if err := m.store.InsertGroup(group); err != nil {
		return errors.WithMessagef(err, "Failed to store group %s", groupId)
	}
	jww.DEBUG.Printf("Created group %s owned by %s", groupId, caller)

	m.notifier.Notify(collection.Event{
		Type:       collection.EventCreated,
		Variant:    collection.GroupVariant,
		Collection: *groupId,
		Actor:      *caller,
		Timestamp:  now,
	})
	return nil
}

// SubmitScore records the encrypted score of caller in groupId. Each
// identity submits at most once, and a group only accepts scores under the
// key its first submission used.
func (m *Manager) SubmitScore(caller, groupId *id.ID, ciphertext []byte,
	pk *paillier.PublicKey) error {
	unlock := m.locker.Lock(groupId)
	defer unlock()

	if err := m.checkStatus(collection.Submit, groupId); err != nil {
		return err
	}

	submitted, err := m.store.HasParticipant(collection.GroupVariant, groupId, caller)
	if err != nil {
		return errors.WithMessagef(err, "Failed to look up score of %s", caller)
	}
	if submitted {
		return errors.WithMessagef(collection.ErrAlreadySubmitted,
			"%s already scored in group %s", caller, groupId)
	}

	group, err := m.store.GetGroup(groupId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to load group %s", groupId)
	}
	group.KeyFingerprint, err = collection.BindKey(group.KeyFingerprint, pk)
	if err != nil {
		return errors.WithMessagef(err, "group %s", groupId)
	}

	c, err := paillier.DecodeCiphertext(pk, ciphertext)
	if err != nil {
		return errors.WithMessagef(err, "score of %s for group %s", caller,
			groupId)
	}

	seq, err := m.store.CountParticipants(collection.GroupVariant, groupId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to count scores of group %s",
			groupId)
	}
	score := &storage.Score{
		GroupId:       group.Id,
		ParticipantId: caller.Marshal(),
		Seq:           seq,
		Ciphertext:    paillier.EncodeCiphertext(c),
	}
	if err = m.store.RecordScore(group, score); err != nil {
		return errors.WithMessagef(err, "Failed to store score for group %s",
			groupId)
	}
	jww.DEBUG.Printf("Accepted score of %s for group %s", caller, groupId)

	m.notifier.Notify(collection.Event{
		Type:       collection.EventSubmitted,
		Variant:    collection.GroupVariant,
		Collection: *groupId,
		Actor:      *caller,
		Timestamp:  m.clock.Now(),
	})
	return nil
}

// FinalizeGroup sums every score of groupId under pk, publishes the sum and
// the number of scores, and deletes the working state. Only the group owner
// may finalize. An empty group publishes the trivial encryption of zero.
func (m *Manager) FinalizeGroup(caller, groupId *id.ID, pk *paillier.PublicKey) error {
	unlock := m.locker.Lock(groupId)
	defer unlock()

	if err := m.checkStatus(collection.Finalize, groupId); err != nil {
		return err
	}

	group, err := m.store.GetGroup(groupId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to load group %s", groupId)
	}
	owner, err := group.GetOwner()
	if err != nil {
		return errors.WithMessagef(err, "Corrupt owner of group %s", groupId)
	}
	if !caller.Cmp(owner) {
		return errors.WithMessagef(collection.ErrNotOwner,
			"%s cannot finalize group %s", caller, groupId)
	}
	if _, err = collection.BindKey(group.KeyFingerprint, pk); err != nil {
		return errors.WithMessagef(err, "group %s", groupId)
	}

	scores, err := m.store.GetScores(groupId)
	if err != nil {
		return errors.WithMessagef(err, "Failed to load scores of group %s",
			groupId)
	}
	sum, err := sumScores(pk, scores)
	if err != nil {
		return errors.WithMessagef(err, "Failed to sum group %s", groupId)
	}

	now := m.clock.Now()
	count := uint64(len(scores))
	finalized := &storage.FinalizedGroup{
		Id:        group.Id,
		Owner:     group.Owner,
		Created:   group.Created,
		Finalized: now,
		Sum:       paillier.EncodeCiphertext(sum),
		Count:     count,
	}
	if err = m.store.FinalizeGroup(finalized); err != nil {
		return errors.WithMessagef(err, "Failed to finalize group %s", groupId)
	}
	jww.INFO.Printf("Finalized group %s with %d scores", groupId, count)

	m.notifier.Notify(collection.Event{
		Type:             collection.EventFinalized,
		Variant:          collection.GroupVariant,
		Collection:       *groupId,
		Actor:            *caller,
		Timestamp:        now,
		ParticipantCount: count,
		Aggregate:        [][]byte{finalized.Sum},
	})
	return nil
}

func sumScores(pk *paillier.PublicKey, scores []*storage.Score) (*large.Int, error) {
	sum := paillier.TrivialZero()
	for i, s := range scores {
		c, err := paillier.DecodeCiphertext(pk, s.Ciphertext)
		if err != nil {
			return nil, errors.WithMessagef(err, "score %d", s.Seq)
		}
		if i == 0 {
			sum = c
			continue
		}
		if sum, err = paillier.Add(pk, sum, c); err != nil {
			return nil, err
		}
	}
	return sum, nil
}
