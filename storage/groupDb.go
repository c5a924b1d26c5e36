////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the database ORM for score groups

package storage

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/gorm"
)

// GetGroupStatus returns the lifecycle status of groupId
func (d *DatabaseImpl) GetGroupStatus(groupId *id.ID) (collection.Status, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	s, err := status(d.db.WithContext(ctx), &Group{}, &FinalizedGroup{}, groupId)
	return s, catchCde(err)
}

// InsertGroup adds a new active Group
func (d *DatabaseImpl) InsertGroup(group *Group) error {
	ctx, cancel := newDbContext()
	defer cancel()

	return catchCde(d.db.WithContext(ctx).Create(group).Error)
}

// GetGroup returns the active Group with the given ID
func (d *DatabaseImpl) GetGroup(groupId *id.ID) (*Group, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	result := &Group{}
	err := d.db.WithContext(ctx).Where("id = ?", groupId.Marshal()).
		Take(result).Error
	return result, catchCde(err)
}

// RecordScore stores score, its participant record and the key fingerprint
// of group in a single transaction
func (d *DatabaseImpl) RecordScore(group *Group, score *Score) error {
	ctx, cancel := newDbContext()
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		participant := &Participant{
			Variant:       string(collection.GroupVariant),
			CollectionId:  score.GroupId,
			ParticipantId: score.ParticipantId,
			Seq:           score.Seq,
		}
		if err := tx.Create(participant).Error; err != nil {
			return err
		}
		if err := tx.Create(score).Error; err != nil {
			return err
		}
		return tx.Model(&Group{}).Where("id = ?", group.Id).
			Update("key_fingerprint", group.KeyFingerprint).Error
	})
	return catchCde(err)
}

// GetScores returns every score of groupId in submission order
func (d *DatabaseImpl) GetScores(groupId *id.ID) ([]*Score, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	var scores []*Score
	err := d.db.WithContext(ctx).Where("group_id = ?", groupId.Marshal()).
		Order("seq").Find(&scores).Error
	return scores, catchCde(err)
}

// FinalizeGroup publishes finalized and deletes the active group and its
// scores in a single transaction. It fails if the number of stored scores
// differs from the published count.
func (d *DatabaseImpl) FinalizeGroup(finalized *FinalizedGroup) error {
	ctx, cancel := newDbContext()
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Score{}).Where("group_id = ?", finalized.Id).
			Count(&count).Error
		if err != nil {
			return err
		}
		if uint64(count) != finalized.Count {
			return errors.Errorf("group holds %d scores, finalized "+
				"count is %d", count, finalized.Count)
		}

		if err = tx.Create(finalized).Error; err != nil {
			return err
		}

		err = tx.Where("group_id = ?", finalized.Id).Delete(&Score{}).Error
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", finalized.Id).Delete(&Group{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return errors.Errorf("expected to delete one active group, "+
				"deleted %d", result.RowsAffected)
		}
		return nil
	})
	return catchCde(err)
}

// GetFinalizedGroup returns the published sum and count of groupId
func (d *DatabaseImpl) GetFinalizedGroup(groupId *id.ID) (*FinalizedGroup, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	result := &FinalizedGroup{}
	err := d.db.WithContext(ctx).Where("id = ?", groupId.Marshal()).
		Take(result).Error
	return result, catchCde(err)
}
