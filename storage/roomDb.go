////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the database ORM for vote rooms

package storage

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/gorm"
)

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// GetRoomStatus returns the lifecycle status of roomId
func (d *DatabaseImpl) GetRoomStatus(roomId *id.ID) (collection.Status, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	s, err := status(d.db.WithContext(ctx), &Room{}, &FinalizedRoom{}, roomId)
	return s, catchCde(err)
}

// InsertRoom adds a new active Room along with its members
func (d *DatabaseImpl) InsertRoom(room *Room) error {
	ctx, cancel := newDbContext()
	defer cancel()

	return catchCde(d.db.WithContext(ctx).Create(room).Error)
}

// GetRoom returns the active Room with the given ID, members in order
func (d *DatabaseImpl) GetRoom(roomId *id.ID) (*Room, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	result := &Room{}
	err := d.db.WithContext(ctx).Preload("Members", orderByPosition).
		Where("id = ?", roomId.Marshal()).Take(result).Error
	return result, catchCde(err)
}

// RecordVotes stores the new member totals of room and the participant who
// produced them in a single transaction
func (d *DatabaseImpl) RecordVotes(room *Room, participant *Participant) error {
	ctx, cancel := newDbContext()
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Fails on the primary key if the participant already voted
		if err := tx.Create(participant).Error; err != nil {
			return err
		}

		for _, m := range room.Members {
			err := tx.Model(&RoomMember{}).
				Where("room_id = ? AND member_id = ?", room.Id, m.MemberId).
				Update("total", m.Total).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&Room{}).Where("id = ?", room.Id).
			Update("key_fingerprint", room.KeyFingerprint).Error
	})
	return catchCde(err)
}

// FinalizeRoom publishes finalized and deletes the active room it was built
// from in a single transaction
func (d *DatabaseImpl) FinalizeRoom(finalized *FinalizedRoom) error {
	ctx, cancel := newDbContext()
	defer cancel()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(finalized).Error; err != nil {
			return err
		}

		err := tx.Where("room_id = ?", finalized.Id).Delete(&RoomMember{}).Error
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", finalized.Id).Delete(&Room{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return errors.Errorf("expected to delete one active room, "+
				"deleted %d", result.RowsAffected)
		}
		return nil
	})
	return catchCde(err)
}

// GetFinalizedRoom returns the published aggregate of roomId
func (d *DatabaseImpl) GetFinalizedRoom(roomId *id.ID) (*FinalizedRoom, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	result := &FinalizedRoom{}
	err := d.db.WithContext(ctx).Preload("Totals", orderByPosition).
		Where("id = ?", roomId.Marshal()).Take(result).Error
	return result, catchCde(err)
}
