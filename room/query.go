////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package room

import (
	"time"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// MemberTotal is the published encrypted total of one member
type MemberTotal struct {
	Member uint64
	Total  []byte
}

// FinalizedDetails is the published aggregate of a room
type FinalizedDetails struct {
	Created          time.Time
	Finalized        time.Time
	ParticipantCount uint64
	Totals           []MemberTotal
}

// Details describes a room in any status but Absent
type Details struct {
	Owner            *id.ID
	Members          []uint64
	ParticipantCount uint64
	Created          time.Time
	Deadline         time.Time
	Active           bool
}

func (m *Manager) status(roomId *id.ID) (collection.Status, error) {
	s, err := m.store.GetRoomStatus(roomId)
	if err != nil {
		return s, errors.WithMessagef(err, "Failed to look up room %s", roomId)
	}
	return s, nil
}

// GetFinalizedDetails returns the published totals of roomId in member
// declaration order.
func (m *Manager) GetFinalizedDetails(roomId *id.ID) (*FinalizedDetails, error) {
	s, err := m.status(roomId)
	if err != nil {
		return nil, err
	}
	switch s {
	case collection.Absent:
		return nil, errors.WithMessagef(collection.ErrNotFound, "room %s", roomId)
	case collection.Active:
		return nil, errors.WithMessagef(collection.ErrNotFinalized, "room %s", roomId)
	}

	fr, err := m.store.GetFinalizedRoom(roomId)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to load finalized room %s",
			roomId)
	}

	details := &FinalizedDetails{
		Created:          fr.Created,
		Finalized:        fr.Finalized,
		ParticipantCount: fr.ParticipantCount,
		Totals:           make([]MemberTotal, len(fr.Totals)),
	}
	for i, t := range fr.Totals {
		details.Totals[i] = MemberTotal{Member: t.MemberId, Total: t.Total}
	}
	return details, nil
}

// HasVoted reports whether participant voted in roomId. The answer stays
// truthful after the room is finalized.
func (m *Manager) HasVoted(roomId, participant *id.ID) (bool, error) {
	s, err := m.status(roomId)
	if err != nil {
		return false, err
	}
	if s == collection.Absent {
		return false, errors.WithMessagef(collection.ErrNotFound, "room %s", roomId)
	}

	voted, err := m.store.HasParticipant(collection.RoomVariant, roomId, participant)
	if err != nil {
		return false, errors.WithMessagef(err, "Failed to look up votes of %s",
			participant)
	}
	return voted, nil
}

// IsFinalized reports whether roomId has been finalized. Unknown ids are not.
func (m *Manager) IsFinalized(roomId *id.ID) (bool, error) {
	s, err := m.status(roomId)
	return s == collection.Finalized, err
}

// GetRoomDetails describes roomId whether it is active or finalized.
func (m *Manager) GetRoomDetails(roomId *id.ID) (*Details, error) {
	s, err := m.status(roomId)
	if err != nil {
		return nil, err
	}

	count, err := m.store.CountParticipants(collection.RoomVariant, roomId)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to count voters of room %s",
			roomId)
	}

	switch s {
	case collection.Active:
		room, err := m.store.GetRoom(roomId)
		if err != nil {
			return nil, errors.WithMessagef(err, "Failed to load room %s", roomId)
		}
		owner, err := room.GetOwner()
		if err != nil {
			return nil, errors.WithMessagef(err, "Corrupt owner of room %s", roomId)
		}
		return &Details{
			Owner:            owner,
			Members:          room.MemberIds(),
			ParticipantCount: count,
			Created:          room.Created,
			Deadline:         room.Deadline,
			Active:           true,
		}, nil

	case collection.Finalized:
		fr, err := m.store.GetFinalizedRoom(roomId)
		if err != nil {
			return nil, errors.WithMessagef(err,
				"Failed to load finalized room %s", roomId)
		}
		owner, err := fr.GetOwner()
		if err != nil {
			return nil, errors.WithMessagef(err, "Corrupt owner of room %s", roomId)
		}
		members := make([]uint64, len(fr.Totals))
		for i, t := range fr.Totals {
			members[i] = t.MemberId
		}
		return &Details{
			Owner:            owner,
			Members:          members,
			ParticipantCount: fr.ParticipantCount,
			Created:          fr.Created,
			Deadline:         fr.Deadline,
			Active:           false,
		}, nil

	default:
		return nil, errors.WithMessagef(collection.ErrNotFound, "room %s", roomId)
	}
}
