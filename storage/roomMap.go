////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the Map backend for vote rooms

package storage

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// GetRoomStatus returns the lifecycle status of roomId
func (m *MapImpl) GetRoomStatus(roomId *id.ID) (collection.Status, error) {
	m.Lock()
	defer m.Unlock()

	return m.roomStatus(*roomId), nil
}

func (m *MapImpl) roomStatus(roomId id.ID) collection.Status {
	if _, ok := m.rooms[roomId]; ok {
		return collection.Active
	}
	if _, ok := m.finalizedRooms[roomId]; ok {
		return collection.Finalized
	}
	return collection.Absent
}

// InsertRoom adds a new active Room along with its members
func (m *MapImpl) InsertRoom(room *Room) error {
	m.Lock()
	defer m.Unlock()

	roomId, err := unmarshalKey(room.Id)
	if err != nil {
		return err
	}
	if s := m.roomStatus(roomId); s != collection.Absent {
		return errors.Errorf("Room %s already exists with status %s",
			roomId.String(), s)
	}

	stored := &Room{}
	if err = deepCopy(stored, room); err != nil {
		return errors.WithMessage(err, "Unable to copy Room")
	}
	for i := range stored.Members {
		stored.Members[i].RoomId = stored.Id
	}
	m.rooms[roomId] = stored
	return nil
}

// GetRoom returns the active Room with the given ID, members in order
func (m *MapImpl) GetRoom(roomId *id.ID) (*Room, error) {
	m.Lock()
	defer m.Unlock()

	stored, ok := m.rooms[*roomId]
	if !ok {
		return nil, errors.Errorf("Unable to locate Room for ID %s",
			roomId.String())
	}

	result := &Room{}
	if err := deepCopy(result, stored); err != nil {
		return nil, errors.WithMessage(err, "Unable to copy Room")
	}
	return result, nil
}

// RecordVotes stores the new member totals of room and the participant who
// produced them
func (m *MapImpl) RecordVotes(room *Room, participant *Participant) error {
	m.Lock()
	defer m.Unlock()

	roomId, err := unmarshalKey(room.Id)
	if err != nil {
		return err
	}
	stored, ok := m.rooms[roomId]
	if !ok {
		return errors.Errorf("Unable to locate Room for ID %s",
			roomId.String())
	}

	key, pid, err := m.checkParticipant(participant)
	if err != nil {
		return err
	}

	totals := make(map[uint64][]byte, len(room.Members))
	for _, member := range room.Members {
		totals[member.MemberId] = member.Total
	}
	for _, member := range stored.Members {
		if _, ok = totals[member.MemberId]; !ok {
			return errors.Errorf("No total given for member %d of Room %s",
				member.MemberId, roomId.String())
		}
	}

	// Everything is checked, apply
	for i := range stored.Members {
		total := totals[stored.Members[i].MemberId]
		stored.Members[i].Total = append([]byte(nil), total...)
	}
	stored.KeyFingerprint = append([]byte(nil), room.KeyFingerprint...)
	m.addParticipant(key, pid, participant)
	return nil
}

// FinalizeRoom publishes finalized and deletes the active room it was built
// from
func (m *MapImpl) FinalizeRoom(finalized *FinalizedRoom) error {
	m.Lock()
	defer m.Unlock()

	roomId, err := unmarshalKey(finalized.Id)
	if err != nil {
		return err
	}
	if s := m.roomStatus(roomId); s != collection.Active {
		return errors.Errorf("Cannot finalize Room %s with status %s",
			roomId.String(), s)
	}

	stored := &FinalizedRoom{}
	if err = deepCopy(stored, finalized); err != nil {
		return errors.WithMessage(err, "Unable to copy FinalizedRoom")
	}
	m.finalizedRooms[roomId] = stored
	delete(m.rooms, roomId)
	return nil
}

// GetFinalizedRoom returns the published aggregate of roomId
func (m *MapImpl) GetFinalizedRoom(roomId *id.ID) (*FinalizedRoom, error) {
	m.Lock()
	defer m.Unlock()

	stored, ok := m.finalizedRooms[*roomId]
	if !ok {
		return nil, errors.Errorf("Unable to locate FinalizedRoom for ID %s",
			roomId.String())
	}

	result := &FinalizedRoom{}
	if err := deepCopy(result, stored); err != nil {
		return nil, errors.WithMessage(err, "Unable to copy FinalizedRoom")
	}
	return result, nil
}
