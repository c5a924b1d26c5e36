////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the high level storage API.
// This layer merges the business logic layer and the database layer

package storage

import (
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
)

// Storage API for the storage layer
type Storage struct {
	// Stored database interface
	database
}

// NewStorage Create a new Storage object wrapping a database interface
// Returns a Storage object and error
func NewStorage(username, password, dbName, address, port string, devMode bool) (*Storage, error) {
	db, err := newDatabase(username, password, dbName, address, port, devMode)
	storage := &Storage{db}
	return storage, err
}

// NewMapStorage returns a Storage backed only by memory.
func NewMapStorage() *Storage {
	return &Storage{newMapImpl()}
}

// NewParticipant builds the record of participantId submitting to
// collectionId as the seq-th participant.
func NewParticipant(variant collection.Variant, collectionId,
	participantId *id.ID, seq uint64) *Participant {
	return &Participant{
		Variant:       string(variant),
		CollectionId:  collectionId.Marshal(),
		ParticipantId: participantId.Marshal(),
		Seq:           seq,
	}
}

func (r *Room) GetId() (*id.ID, error) {
	return id.Unmarshal(r.Id)
}

func (r *Room) GetOwner() (*id.ID, error) {
	return id.Unmarshal(r.Owner)
}

// MemberIds returns the member slot ids in declaration order.
func (r *Room) MemberIds() []uint64 {
	ids := make([]uint64, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.MemberId
	}
	return ids
}

func (fr *FinalizedRoom) GetOwner() (*id.ID, error) {
	return id.Unmarshal(fr.Owner)
}

func (g *Group) GetId() (*id.ID, error) {
	return id.Unmarshal(g.Id)
}

func (g *Group) GetOwner() (*id.ID, error) {
	return id.Unmarshal(g.Owner)
}
