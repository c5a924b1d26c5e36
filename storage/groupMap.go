////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the Map backend for score groups

package storage

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// GetGroupStatus returns the lifecycle status of groupId
func (m *MapImpl) GetGroupStatus(groupId *id.ID) (collection.Status, error) {
	m.Lock()
	defer m.Unlock()

	return m.groupStatus(*groupId), nil
}

func (m *MapImpl) groupStatus(groupId id.ID) collection.Status {
	if _, ok := m.groups[groupId]; ok {
		return collection.Active
	}
	if _, ok := m.finalizedGroups[groupId]; ok {
		return collection.Finalized
	}
	return collection.Absent
}

// InsertGroup adds a new active Group
func (m *MapImpl) InsertGroup(group *Group) error {
	m.Lock()
	defer m.Unlock()

	groupId, err := unmarshalKey(group.Id)
	if err != nil {
		return err
	}
	if s := m.groupStatus(groupId); s != collection.Absent {
		return errors.Errorf("Group %s already exists with status %s",
			groupId.String(), s)
	}

	stored := &Group{}
	if err = deepCopy(stored, group); err != nil {
		return errors.WithMessage(err, "Unable to copy Group")
	}
	m.groups[groupId] = stored
	return nil
}

// GetGroup returns the active Group with the given ID
func (m *MapImpl) GetGroup(groupId *id.ID) (*Group, error) {
	m.Lock()
	defer m.Unlock()

	stored, ok := m.groups[*groupId]
	if !ok {
		return nil, errors.Errorf("Unable to locate Group for ID %s",
			groupId.String())
	}

	result := &Group{}
	if err := deepCopy(result, stored); err != nil {
		return nil, errors.WithMessage(err, "Unable to copy Group")
	}
	return result, nil
}

// RecordScore stores score, its participant record and the key fingerprint
// of group
func (m *MapImpl) RecordScore(group *Group, score *Score) error {
	m.Lock()
	defer m.Unlock()

	groupId, err := unmarshalKey(group.Id)
	if err != nil {
		return err
	}
	stored, ok := m.groups[groupId]
	if !ok {
		return errors.Errorf("Unable to locate Group for ID %s",
			groupId.String())
	}

	participant := &Participant{
		Variant:       string(collection.GroupVariant),
		CollectionId:  score.GroupId,
		ParticipantId: score.ParticipantId,
		Seq:           score.Seq,
	}
	key, pid, err := m.checkParticipant(participant)
	if err != nil {
		return err
	}

	storedScore := &Score{}
	if err = deepCopy(storedScore, score); err != nil {
		return errors.WithMessage(err, "Unable to copy Score")
	}

	m.scores[groupId] = append(m.scores[groupId], storedScore)
	stored.KeyFingerprint = append([]byte(nil), group.KeyFingerprint...)
	m.addParticipant(key, pid, participant)
	return nil
}

// GetScores returns every score of groupId in submission order
func (m *MapImpl) GetScores(groupId *id.ID) ([]*Score, error) {
	m.Lock()
	defer m.Unlock()

	stored := m.scores[*groupId]
	if len(stored) == 0 {
		return nil, nil
	}

	var scores []*Score
	if err := deepCopy(&scores, stored); err != nil {
		return nil, errors.WithMessage(err, "Unable to copy Scores")
	}
	return scores, nil
}

// FinalizeGroup publishes finalized and deletes the active group and its
// scores. It fails if the number of stored scores differs from the
// published count.
func (m *MapImpl) FinalizeGroup(finalized *FinalizedGroup) error {
	m.Lock()
	defer m.Unlock()

	groupId, err := unmarshalKey(finalized.Id)
	if err != nil {
		return err
	}
	if s := m.groupStatus(groupId); s != collection.Active {
		return errors.Errorf("Cannot finalize Group %s with status %s",
			groupId.String(), s)
	}
	if count := uint64(len(m.scores[groupId])); count != finalized.Count {
		return errors.Errorf("Group %s holds %d scores, finalized count "+
			"is %d", groupId.String(), count, finalized.Count)
	}

	stored := &FinalizedGroup{}
	if err = deepCopy(stored, finalized); err != nil {
		return errors.WithMessage(err, "Unable to copy FinalizedGroup")
	}
	m.finalizedGroups[groupId] = stored
	delete(m.scores, groupId)
	delete(m.groups, groupId)
	return nil
}

// GetFinalizedGroup returns the published sum and count of groupId
func (m *MapImpl) GetFinalizedGroup(groupId *id.ID) (*FinalizedGroup, error) {
	m.Lock()
	defer m.Unlock()

	stored, ok := m.finalizedGroups[*groupId]
	if !ok {
		return nil, errors.Errorf("Unable to locate FinalizedGroup for ID %s",
			groupId.String())
	}

	result := &FinalizedGroup{}
	if err := deepCopy(result, stored); err != nil {
		return nil, errors.WithMessage(err, "Unable to copy FinalizedGroup")
	}
	return result, nil
}
