////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the database ORM shared by rooms and groups

package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/gorm"
)

// Helper for forcing panics in the event of a CDE, otherwise acts as a pass-through
func catchCde(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		jww.FATAL.Panicf("Database call timed out: %+v", err.Error())
	}
	return err
}

func newDbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DbTimeout*time.Second)
}

// status reports whether collectionId has a row in the active table, the
// finalized table or neither
func status(db *gorm.DB, active, finalized interface{},
	collectionId *id.ID) (collection.Status, error) {
	var count int64
	err := db.Model(active).Where("id = ?", collectionId.Marshal()).
		Count(&count).Error
	if err != nil {
		return collection.Absent, err
	}
	if count > 0 {
		return collection.Active, nil
	}

	err = db.Model(finalized).Where("id = ?", collectionId.Marshal()).
		Count(&count).Error
	if err != nil {
		return collection.Absent, err
	}
	if count > 0 {
		return collection.Finalized, nil
	}
	return collection.Absent, nil
}

// HasParticipant reports whether participantId submitted to collectionId
func (d *DatabaseImpl) HasParticipant(variant collection.Variant,
	collectionId, participantId *id.ID) (bool, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	var count int64
	err := d.db.WithContext(ctx).Model(&Participant{}).
		Where("variant = ? AND collection_id = ? AND participant_id = ?",
			string(variant), collectionId.Marshal(), participantId.Marshal()).
		Count(&count).Error
	return count > 0, catchCde(err)
}

// CountParticipants returns how many identities submitted to collectionId
func (d *DatabaseImpl) CountParticipants(variant collection.Variant,
	collectionId *id.ID) (uint64, error) {
	ctx, cancel := newDbContext()
	defer cancel()

	var count int64
	err := d.db.WithContext(ctx).Model(&Participant{}).
		Where("variant = ? AND collection_id = ?", string(variant),
			collectionId.Marshal()).
		Count(&count).Error
	return uint64(count), catchCde(err)
}
