////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"bytes"
	"testing"
	"time"

	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// Hidden function for one-time unit testing database implementation
// DROP TABLE rooms, room_members, finalized_rooms, finalized_totals, participants;
//func TestDatabaseImpl_Room(t *testing.T) {
//	jwalterweatherman.SetLogThreshold(jwalterweatherman.LevelTrace)
//	jwalterweatherman.SetStdoutThreshold(jwalterweatherman.LevelTrace)
//
//	db, err := newDatabase("cmix", "", "aggregator", "0.0.0.0", "5432", false)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//
//	room := newTestRoom(t, "room", 1, 2, 3)
//	err = db.InsertRoom(room)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//	roomId, _ := room.GetId()
//	stored, err := db.GetRoom(roomId)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//	jwalterweatherman.INFO.Printf("Obtained room %+v", stored)
//}

func newTestRoom(t *testing.T, name string, members ...uint64) *Room {
	roomId := id.NewIdFromString(name, id.Generic, t)
	owner := id.NewIdFromString("owner", id.User, t)

	room := &Room{
		Id:       roomId.Marshal(),
		Owner:    owner.Marshal(),
		Created:  time.Unix(1650000000, 0),
		Deadline: time.Unix(1650000000, 0).Add(24 * time.Hour),
	}
	for i, m := range members {
		room.Members = append(room.Members, RoomMember{
			RoomId:   roomId.Marshal(),
			MemberId: m,
			Position: uint32(i),
		})
	}
	return room
}

// Happy path
func TestMapImpl_InsertRoom(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1, 2, 3)
	roomId, _ := room.GetId()

	if s, _ := m.GetRoomStatus(roomId); s != collection.Absent {
		t.Errorf("New room has status %s, expected %s", s, collection.Absent)
	}

	err := m.InsertRoom(room)
	if err != nil {
		t.Fatalf("Failed to insert room: %+v", err)
	}
	if s, _ := m.GetRoomStatus(roomId); s != collection.Active {
		t.Errorf("Inserted room has status %s, expected %s", s,
			collection.Active)
	}

	stored, err := m.GetRoom(roomId)
	if err != nil {
		t.Fatalf("Failed to get room: %+v", err)
	}
	memberIds := stored.MemberIds()
	if len(memberIds) != 3 || memberIds[0] != 1 || memberIds[2] != 3 {
		t.Errorf("Unexpected members: %v", memberIds)
	}
	if !stored.Created.Equal(room.Created) {
		t.Errorf("Creation time not kept.\n\treceived: %s\n\texpected: %s",
			stored.Created, room.Created)
	}
}

// Error path: the id is already in use
func TestMapImpl_InsertRoom_Exists(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1)

	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("Failed to insert room: %+v", err)
	}
	if err := m.InsertRoom(room); err == nil {
		t.Errorf("Inserted the same room twice")
	}
}

// Returned rooms must not alias the stored state
func TestMapImpl_GetRoom_Copy(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1)
	roomId, _ := room.GetId()
	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}

	room.Members[0].Total = []byte{9}

	first, _ := m.GetRoom(roomId)
	if len(first.Members[0].Total) != 0 {
		t.Errorf("Stored room changed with the inserted value")
	}
	first.Members[0].Total = []byte{7}

	second, _ := m.GetRoom(roomId)
	if len(second.Members[0].Total) != 0 {
		t.Errorf("Stored room changed with a returned value")
	}
}

// Error path
func TestMapImpl_GetRoom_Missing(t *testing.T) {
	m := newMapImpl()
	if _, err := m.GetRoom(id.NewIdFromString("none", id.Generic, t)); err == nil {
		t.Errorf("Got a room that was never inserted")
	}
}

// Happy path
func TestMapImpl_RecordVotes(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1, 2)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)
	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}

	room.Members[0].Total = []byte{1}
	room.Members[1].Total = []byte{2}
	room.KeyFingerprint = []byte{3}
	err := m.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId, voter, 0))
	if err != nil {
		t.Fatalf("Failed to record votes: %+v", err)
	}

	stored, _ := m.GetRoom(roomId)
	if !bytes.Equal(stored.Members[0].Total, []byte{1}) ||
		!bytes.Equal(stored.Members[1].Total, []byte{2}) {
		t.Errorf("Totals not stored: %+v", stored.Members)
	}
	if !bytes.Equal(stored.KeyFingerprint, []byte{3}) {
		t.Errorf("Fingerprint not stored")
	}

	voted, _ := m.HasParticipant(collection.RoomVariant, roomId, voter)
	if !voted {
		t.Errorf("Participant not recorded")
	}
	if count, _ := m.CountParticipants(collection.RoomVariant, roomId); count != 1 {
		t.Errorf("Participant count is %d, expected 1", count)
	}
}

// Error path: a second record for the same participant changes nothing
func TestMapImpl_RecordVotes_Duplicate(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)
	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}

	room.Members[0].Total = []byte{1}
	if err := m.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId, voter, 0)); err != nil {
		t.Fatalf("RecordVotes failed: %+v", err)
	}

	room.Members[0].Total = []byte{2}
	err := m.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId, voter, 1))
	if err == nil {
		t.Errorf("Recorded the same participant twice")
	}

	stored, _ := m.GetRoom(roomId)
	if !bytes.Equal(stored.Members[0].Total, []byte{1}) {
		t.Errorf("Refused record changed the totals")
	}
}

// Participants of rooms and groups with the same id are separate
func TestMapImpl_HasParticipant_Variants(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "shared", 1)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)
	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}
	if err := m.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId, voter, 0)); err != nil {
		t.Fatalf("RecordVotes failed: %+v", err)
	}

	if ok, _ := m.HasParticipant(collection.GroupVariant, roomId, voter); ok {
		t.Errorf("Room participant visible to groups")
	}
}

// Happy path
func TestMapImpl_FinalizeRoom(t *testing.T) {
	m := newMapImpl()
	room := newTestRoom(t, "room", 1)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)
	if err := m.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}
	if err := m.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId, voter, 0)); err != nil {
		t.Fatalf("RecordVotes failed: %+v", err)
	}

	finalized := &FinalizedRoom{
		Id:               room.Id,
		Owner:            room.Owner,
		Created:          room.Created,
		Finalized:        room.Created.Add(time.Hour),
		ParticipantCount: 1,
		Totals: []FinalizedTotal{
			{RoomId: room.Id, MemberId: 1, Total: []byte{5}},
		},
	}
	if err := m.FinalizeRoom(finalized); err != nil {
		t.Fatalf("Failed to finalize room: %+v", err)
	}

	if s, _ := m.GetRoomStatus(roomId); s != collection.Finalized {
		t.Errorf("Finalized room has status %s", s)
	}
	if _, err := m.GetRoom(roomId); err == nil {
		t.Errorf("Active state survived finalization")
	}
	stored, err := m.GetFinalizedRoom(roomId)
	if err != nil {
		t.Fatalf("Failed to get finalized room: %+v", err)
	}
	if stored.ParticipantCount != 1 || !bytes.Equal(stored.Totals[0].Total, []byte{5}) {
		t.Errorf("Unexpected finalized room: %+v", stored)
	}
	if ok, _ := m.HasParticipant(collection.RoomVariant, roomId, voter); !ok {
		t.Errorf("Participant record lost at finalization")
	}

	if err = m.FinalizeRoom(finalized); err == nil {
		t.Errorf("Finalized a room twice")
	}
	if err = m.InsertRoom(room); err == nil {
		t.Errorf("Recreated a finalized room")
	}
}
