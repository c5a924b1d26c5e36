////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the Map backend shared by rooms and groups

package storage

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// Values handed in and out of the map are deep copies so callers can never
// alias stored state
func deepCopy(to, from interface{}) error {
	return copier.CopyWithOption(to, from, copier.Option{DeepCopy: true})
}

func unmarshalKey(b []byte) (id.ID, error) {
	cid, err := id.Unmarshal(b)
	if err != nil {
		return id.ID{}, err
	}
	return *cid, nil
}

// HasParticipant reports whether participantId submitted to collectionId
func (m *MapImpl) HasParticipant(variant collection.Variant,
	collectionId, participantId *id.ID) (bool, error) {
	m.Lock()
	defer m.Unlock()

	_, ok := m.participants[participantKey{variant, *collectionId}][*participantId]
	return ok, nil
}

// CountParticipants returns how many identities submitted to collectionId
func (m *MapImpl) CountParticipants(variant collection.Variant,
	collectionId *id.ID) (uint64, error) {
	m.Lock()
	defer m.Unlock()

	return uint64(len(m.participants[participantKey{variant, *collectionId}])), nil
}

// checkParticipant returns the key and participant id of p, or an error if
// it is already recorded. The caller must hold the lock.
func (m *MapImpl) checkParticipant(p *Participant) (participantKey, id.ID, error) {
	cid, err := unmarshalKey(p.CollectionId)
	if err != nil {
		return participantKey{}, id.ID{}, err
	}
	pid, err := unmarshalKey(p.ParticipantId)
	if err != nil {
		return participantKey{}, id.ID{}, err
	}

	key := participantKey{collection.Variant(p.Variant), cid}
	if _, ok := m.participants[key][pid]; ok {
		return participantKey{}, id.ID{}, errors.Errorf(
			"Participant %s already recorded for %s %s", pid.String(),
			p.Variant, cid.String())
	}
	return key, pid, nil
}

// addParticipant stores p after checkParticipant accepted it. The caller
// must hold the lock.
func (m *MapImpl) addParticipant(key participantKey, pid id.ID, p *Participant) {
	set, ok := m.participants[key]
	if !ok {
		set = make(map[id.ID]*Participant)
		m.participants[key] = set
	}
	stored := *p
	set[pid] = &stored
}
