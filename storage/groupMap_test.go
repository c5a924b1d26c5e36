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

func newTestGroup(t *testing.T, name string) *Group {
	return &Group{
		Id:      id.NewIdFromString(name, id.Generic, t).Marshal(),
		Owner:   id.NewIdFromString("owner", id.User, t).Marshal(),
		Created: time.Unix(1650000000, 0),
	}
}

func newTestScore(t *testing.T, group *Group, name string, seq uint64) *Score {
	return &Score{
		GroupId:       group.Id,
		ParticipantId: id.NewIdFromString(name, id.User, t).Marshal(),
		Seq:           seq,
		Ciphertext:    []byte{byte(seq + 1)},
	}
}

// Happy path
func TestMapImpl_RecordScore(t *testing.T) {
	m := newMapImpl()
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()

	if err := m.InsertGroup(group); err != nil {
		t.Fatalf("Failed to insert group: %+v", err)
	}
	if s, _ := m.GetGroupStatus(groupId); s != collection.Active {
		t.Errorf("Inserted group has status %s", s)
	}

	group.KeyFingerprint = []byte{1}
	for i, name := range []string{"a", "b", "c"} {
		if err := m.RecordScore(group, newTestScore(t, group, name, uint64(i))); err != nil {
			t.Fatalf("Failed to record score %d: %+v", i, err)
		}
	}

	scores, err := m.GetScores(groupId)
	if err != nil {
		t.Fatalf("Failed to get scores: %+v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Got %d scores, expected 3", len(scores))
	}
	for i, s := range scores {
		if s.Seq != uint64(i) || !bytes.Equal(s.Ciphertext, []byte{byte(i + 1)}) {
			t.Errorf("Score %d out of order: %+v", i, s)
		}
	}

	stored, _ := m.GetGroup(groupId)
	if !bytes.Equal(stored.KeyFingerprint, []byte{1}) {
		t.Errorf("Fingerprint not stored")
	}
	if count, _ := m.CountParticipants(collection.GroupVariant, groupId); count != 3 {
		t.Errorf("Participant count is %d, expected 3", count)
	}
}

// Error path
func TestMapImpl_RecordScore_Duplicate(t *testing.T) {
	m := newMapImpl()
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()
	if err := m.InsertGroup(group); err != nil {
		t.Fatalf("InsertGroup failed: %+v", err)
	}

	if err := m.RecordScore(group, newTestScore(t, group, "a", 0)); err != nil {
		t.Fatalf("RecordScore failed: %+v", err)
	}
	if err := m.RecordScore(group, newTestScore(t, group, "a", 1)); err == nil {
		t.Errorf("Recorded two scores from one participant")
	}
	if scores, _ := m.GetScores(groupId); len(scores) != 1 {
		t.Errorf("Refused score was stored")
	}
}

// Error path
func TestMapImpl_RecordScore_Missing(t *testing.T) {
	m := newMapImpl()
	group := newTestGroup(t, "group")
	if err := m.RecordScore(group, newTestScore(t, group, "a", 0)); err == nil {
		t.Errorf("Recorded a score for a group that does not exist")
	}
}

// Happy path
func TestMapImpl_FinalizeGroup(t *testing.T) {
	m := newMapImpl()
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()
	if err := m.InsertGroup(group); err != nil {
		t.Fatalf("InsertGroup failed: %+v", err)
	}
	if err := m.RecordScore(group, newTestScore(t, group, "a", 0)); err != nil {
		t.Fatalf("RecordScore failed: %+v", err)
	}
	if err := m.RecordScore(group, newTestScore(t, group, "b", 1)); err != nil {
		t.Fatalf("RecordScore failed: %+v", err)
	}

	finalized := &FinalizedGroup{
		Id:        group.Id,
		Owner:     group.Owner,
		Created:   group.Created,
		Finalized: group.Created.Add(time.Minute),
		Sum:       []byte{3},
		Count:     2,
	}
	if err := m.FinalizeGroup(finalized); err != nil {
		t.Fatalf("Failed to finalize group: %+v", err)
	}

	if s, _ := m.GetGroupStatus(groupId); s != collection.Finalized {
		t.Errorf("Finalized group has status %s", s)
	}
	if scores, _ := m.GetScores(groupId); len(scores) != 0 {
		t.Errorf("Scores survived finalization")
	}
	stored, err := m.GetFinalizedGroup(groupId)
	if err != nil {
		t.Fatalf("Failed to get finalized group: %+v", err)
	}
	if stored.Count != 2 || !bytes.Equal(stored.Sum, []byte{3}) {
		t.Errorf("Unexpected finalized group: %+v", stored)
	}
	if err = m.InsertGroup(group); err == nil {
		t.Errorf("Recreated a finalized group")
	}
}

// Error path: the published count must match the stored scores
func TestMapImpl_FinalizeGroup_CountMismatch(t *testing.T) {
	m := newMapImpl()
	group := newTestGroup(t, "group")
	groupId, _ := group.GetId()
	if err := m.InsertGroup(group); err != nil {
		t.Fatalf("InsertGroup failed: %+v", err)
	}
	if err := m.RecordScore(group, newTestScore(t, group, "a", 0)); err != nil {
		t.Fatalf("RecordScore failed: %+v", err)
	}

	err := m.FinalizeGroup(&FinalizedGroup{Id: group.Id, Sum: []byte{1}, Count: 2})
	if err == nil {
		t.Errorf("Finalized with a count that does not match the scores")
	}
	if s, _ := m.GetGroupStatus(groupId); s != collection.Active {
		t.Errorf("Refused finalization changed the status to %s", s)
	}
}
