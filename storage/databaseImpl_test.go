////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDatabase returns a DatabaseImpl over a private in-memory sqlite
// database carrying the production schema
func newTestDatabase(t *testing.T) *DatabaseImpl {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") +
		"?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %+v", err)
	}
	sqlDb, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get connection pool: %+v", err)
	}
	// One connection keeps the in-memory database alive and serializes
	// transactions
	sqlDb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDb.Close() })

	if err = migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %+v", err)
	}
	return &DatabaseImpl{db: db}
}

// Happy path
func TestDatabaseImpl_Room(t *testing.T) {
	d := newTestDatabase(t)
	room := newTestRoom(t, "room", 3, 1, 2)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)

	if s, err := d.GetRoomStatus(roomId); err != nil || s != collection.Absent {
		t.Errorf("New room has status %s: %v", s, err)
	}
	if err := d.InsertRoom(room); err != nil {
		t.Fatalf("Failed to insert room: %+v", err)
	}
	if s, err := d.GetRoomStatus(roomId); err != nil || s != collection.Active {
		t.Errorf("Inserted room has status %s: %v", s, err)
	}

	room.KeyFingerprint = []byte{9}
	for i := range room.Members {
		room.Members[i].Total = []byte{byte(i + 1)}
	}
	err := d.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId,
		voter, 0))
	if err != nil {
		t.Fatalf("Failed to record votes: %+v", err)
	}

	stored, err := d.GetRoom(roomId)
	if err != nil {
		t.Fatalf("Failed to get room: %+v", err)
	}
	expectedIds := []uint64{3, 1, 2}
	for i, m := range stored.Members {
		if m.MemberId != expectedIds[i] || !bytes.Equal(m.Total, []byte{byte(i + 1)}) {
			t.Errorf("Member %d: received %+v", i, m)
		}
	}
	if !bytes.Equal(stored.KeyFingerprint, []byte{9}) {
		t.Errorf("Key fingerprint not stored: %v", stored.KeyFingerprint)
	}
	if !stored.Deadline.Equal(room.Deadline) {
		t.Errorf("Deadline not stored.\n\treceived: %s\n\texpected: %s",
			stored.Deadline, room.Deadline)
	}
	if ok, err := d.HasParticipant(collection.RoomVariant, roomId, voter); err != nil || !ok {
		t.Errorf("Voter not recorded: %v", err)
	}
}

// Error path: a participant votes once, and a refused record changes nothing
func TestDatabaseImpl_RecordVotes_Duplicate(t *testing.T) {
	d := newTestDatabase(t)
	room := newTestRoom(t, "room", 1)
	roomId, _ := room.GetId()
	voter := id.NewIdFromString("voter", id.User, t)
	if err := d.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}

	room.Members[0].Total = []byte{1}
	err := d.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId,
		voter, 0))
	if err != nil {
		t.Fatalf("RecordVotes failed: %+v", err)
	}

	room.Members[0].Total = []byte{2}
	err = d.RecordVotes(room, NewParticipant(collection.RoomVariant, roomId,
		voter, 1))
	if err == nil {
		t.Errorf("Recorded the same participant twice")
	}

	stored, err := d.GetRoom(roomId)
	if err != nil {
		t.Fatalf("Failed to get room: %+v", err)
	}
	if !bytes.Equal(stored.Members[0].Total, []byte{1}) {
		t.Errorf("Refused vote changed the total to %v", stored.Members[0].Total)
	}
	if n, _ := d.CountParticipants(collection.RoomVariant, roomId); n != 1 {
		t.Errorf("Expected one participant, found %d", n)
	}
}

// Finalizing publishes the totals, drops the working state and happens once
func TestDatabaseImpl_FinalizeRoom(t *testing.T) {
	d := newTestDatabase(t)
	room := newTestRoom(t, "room", 1, 2)
	roomId, _ := room.GetId()
	if err := d.InsertRoom(room); err != nil {
		t.Fatalf("InsertRoom failed: %+v", err)
	}

	finalized := &FinalizedRoom{
		Id:               room.Id,
		Owner:            room.Owner,
		Created:          room.Created,
		Deadline:         room.Deadline,
		Finalized:        room.Created.Add(time.Hour),
		ParticipantCount: 0,
		Totals: []FinalizedTotal{
			{RoomId: room.Id, MemberId: 1, Position: 0, Total: []byte{1}},
			{RoomId: room.Id, MemberId: 2, Position: 1, Total: []byte{1}},
		},
	}
	if err := d.FinalizeRoom(finalized); err != nil {
		t.Fatalf("Failed to finalize: %+v", err)
	}

	if s, err := d.GetRoomStatus(roomId); err != nil || s != collection.Finalized {
		t.Errorf("Finalized room has status %s: %v", s, err)
	}
	var members int64
	d.db.Model(&RoomMember{}).Where("room_id = ?", room.Id).Count(&members)
	if members != 0 {
		t.Errorf("%d member rows survived finalization", members)
	}

	stored, err := d.GetFinalizedRoom(roomId)
	if err != nil {
		t.Fatalf("Failed to get finalized room: %+v", err)
	}
	if len(stored.Totals) != 2 || stored.Totals[1].MemberId != 2 {
		t.Errorf("Unexpected totals: %+v", stored.Totals)
	}

	finalized.Finalized = finalized.Finalized.Add(time.Hour)
	for i := range finalized.Totals {
		finalized.Totals[i].Total = []byte{2}
	}
	if err = d.FinalizeRoom(finalized); err == nil {
		t.Errorf("Finalized a room twice")
	}
	stored, _ = d.GetFinalizedRoom(roomId)
	if !bytes.Equal(stored.Totals[0].Total, []byte{1}) {
		t.Errorf("Second finalization changed the published totals")
	}
}

// Happy path
func TestDatabaseImpl_Group(t *testing.T) {
	d := newTestDatabase(t)
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()
	if err := d.InsertGroup(group); err != nil {
		t.Fatalf("InsertGroup failed: %+v", err)
	}

	for i, name := range []string{"b", "a"} {
		if err := d.RecordScore(group, newTestScore(t, group, name, uint64(i))); err != nil {
			t.Fatalf("Failed to record score %d: %+v", i, err)
		}
	}
	if err := d.RecordScore(group, newTestScore(t, group, "a", 2)); err == nil {
		t.Errorf("Recorded a second score for the same participant")
	}

	scores, err := d.GetScores(groupId)
	if err != nil {
		t.Fatalf("Failed to get scores: %+v", err)
	}
	if len(scores) != 2 || scores[0].Seq != 0 || scores[1].Seq != 1 {
		t.Errorf("Unexpected scores: %+v", scores)
	}
	if n, _ := d.CountParticipants(collection.GroupVariant, groupId); n != 2 {
		t.Errorf("Expected two participants, found %d", n)
	}
	if n, _ := d.CountParticipants(collection.RoomVariant, groupId); n != 0 {
		t.Errorf("Group participants leaked into the room namespace")
	}
}

// Error path: the published count must match the stored scores
func TestDatabaseImpl_FinalizeGroup(t *testing.T) {
	d := newTestDatabase(t)
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()
	if err := d.InsertGroup(group); err != nil {
		t.Fatalf("InsertGroup failed: %+v", err)
	}
	if err := d.RecordScore(group, newTestScore(t, group, "a", 0)); err != nil {
		t.Fatalf("RecordScore failed: %+v", err)
	}

	finalized := &FinalizedGroup{
		Id:        group.Id,
		Owner:     group.Owner,
		Created:   group.Created,
		Finalized: group.Created.Add(time.Hour),
		Sum:       []byte{1},
		Count:     2,
	}
	if err := d.FinalizeGroup(finalized); err == nil {
		t.Errorf("Finalized with a count that does not match the scores")
	}
	if s, _ := d.GetGroupStatus(groupId); s != collection.Active {
		t.Errorf("Refused finalization left status %s", s)
	}

	finalized.Count = 1
	if err := d.FinalizeGroup(finalized); err != nil {
		t.Fatalf("Failed to finalize: %+v", err)
	}
	if s, _ := d.GetGroupStatus(groupId); s != collection.Finalized {
		t.Errorf("Finalized group has status %s", s)
	}
	if scores, _ := d.GetScores(groupId); len(scores) != 0 {
		t.Errorf("%d scores survived finalization", len(scores))
	}
	if ok, _ := d.HasParticipant(collection.GroupVariant, groupId,
		id.NewIdFromString("a", id.User, t)); !ok {
		t.Errorf("Participant record lost on finalization")
	}
	stored, err := d.GetFinalizedGroup(groupId)
	if err != nil || stored.Count != 1 {
		t.Errorf("Unexpected finalized group %+v: %v", stored, err)
	}
}
