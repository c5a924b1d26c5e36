////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package group

import (
	"time"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// Result is the published outcome of a group
type Result struct {
	Sum       []byte
	Count     uint64
	Created   time.Time
	Finalized time.Time
}

// Details describes a group in any status but Absent
type Details struct {
	Owner            *id.ID
	ParticipantCount uint64
	Active           bool
}

func (m *Manager) status(groupId *id.ID) (collection.Status, error) {
	s, err := m.store.GetGroupStatus(groupId)
	if err != nil {
		return s, errors.WithMessagef(err, "Failed to look up group %s", groupId)
	}
	return s, nil
}

// GetResult returns the encrypted sum and count of a finalized group.
func (m *Manager) GetResult(groupId *id.ID) (*Result, error) {
	s, err := m.status(groupId)
	if err != nil {
		return nil, err
	}
	switch s {
	case collection.Absent:
		return nil, errors.WithMessagef(collection.ErrNotFound, "group %s", groupId)
	case collection.Active:
		return nil, errors.WithMessagef(collection.ErrNotFinalized, "group %s", groupId)
	}

	fg, err := m.store.GetFinalizedGroup(groupId)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to load finalized group %s",
			groupId)
	}
	return &Result{
		Sum:       fg.Sum,
		Count:     fg.Count,
		Created:   fg.Created,
		Finalized: fg.Finalized,
	}, nil
}

// HasSubmitted reports whether participant scored in groupId, before or
// after finalization.
func (m *Manager) HasSubmitted(groupId, participant *id.ID) (bool, error) {
	s, err := m.status(groupId)
	if err != nil {
		return false, err
	}
	if s == collection.Absent {
		return false, errors.WithMessagef(collection.ErrNotFound, "group %s", groupId)
	}

	submitted, err := m.store.HasParticipant(collection.GroupVariant, groupId, participant)
	if err != nil {
		return false, errors.WithMessagef(err, "Failed to look up score of %s",
			participant)
	}
	return submitted, nil
}

// IsFinalized reports whether groupId has been finalized. Unknown ids are not.
func (m *Manager) IsFinalized(groupId *id.ID) (bool, error) {
	s, err := m.status(groupId)
	return s == collection.Finalized, err
}

// GetGroupDetails returns the owner, participant count and active flag of
// groupId.
func (m *Manager) GetGroupDetails(groupId *id.ID) (*Details, error) {
	s, err := m.status(groupId)
	if err != nil {
		return nil, err
	}

	var ownerBytes []byte
	switch s {
	case collection.Active:
		g, err := m.store.GetGroup(groupId)
		if err != nil {
			return nil, errors.WithMessagef(err, "Failed to load group %s", groupId)
		}
		ownerBytes = g.Owner
	case collection.Finalized:
		fg, err := m.store.GetFinalizedGroup(groupId)
		if err != nil {
			return nil, errors.WithMessagef(err,
				"Failed to load finalized group %s", groupId)
		}
		ownerBytes = fg.Owner
	default:
		return nil, errors.WithMessagef(collection.ErrNotFound, "group %s", groupId)
	}

	owner, err := id.Unmarshal(ownerBytes)
	if err != nil {
		return nil, errors.WithMessagef(err, "Corrupt owner of group %s", groupId)
	}
	count, err := m.store.CountParticipants(collection.GroupVariant, groupId)
	if err != nil {
		return nil, errors.WithMessagef(err, "Failed to count scores of group %s",
			groupId)
	}
	return &Details{
		Owner:            owner,
		ParticipantCount: count,
		Active:           s == collection.Active,
	}, nil
}
