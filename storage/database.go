////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles low level database control and interfaces

package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/xx_network/primitives/id"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DbTimeout determines maximum runtime (in seconds) of specific DB queries
const DbTimeout = 1

// Interface declaration for storage methods. Every mutating method is atomic:
// it either applies completely or not at all.
type database interface {
	GetRoomStatus(roomId *id.ID) (collection.Status, error)
	InsertRoom(room *Room) error
	GetRoom(roomId *id.ID) (*Room, error)
	RecordVotes(room *Room, participant *Participant) error
	FinalizeRoom(finalized *FinalizedRoom) error
	GetFinalizedRoom(roomId *id.ID) (*FinalizedRoom, error)

	GetGroupStatus(groupId *id.ID) (collection.Status, error)
	InsertGroup(group *Group) error
	GetGroup(groupId *id.ID) (*Group, error)
	RecordScore(group *Group, score *Score) error
	GetScores(groupId *id.ID) ([]*Score, error)
	FinalizeGroup(finalized *FinalizedGroup) error
	GetFinalizedGroup(groupId *id.ID) (*FinalizedGroup, error)

	HasParticipant(variant collection.Variant, collectionId, participantId *id.ID) (bool, error)
	CountParticipants(variant collection.Variant, collectionId *id.ID) (uint64, error)
}

// DatabaseImpl Struct implementing the database Interface with an underlying DB
type DatabaseImpl struct {
	db *gorm.DB // Stored database connection
}

// MapImpl Struct implementing the database Interface with an underlying Map
type MapImpl struct {
	rooms           map[id.ID]*Room
	finalizedRooms  map[id.ID]*FinalizedRoom
	groups          map[id.ID]*Group
	scores          map[id.ID][]*Score
	finalizedGroups map[id.ID]*FinalizedGroup
	participants    map[participantKey]map[id.ID]*Participant
	sync.Mutex
}

type participantKey struct {
	variant    collection.Variant
	collection id.ID
}

// Room is the working state of an active vote room
type Room struct {
	Id      []byte    `gorm:"primaryKey"`
	Owner   []byte    `gorm:"not null"`
	Created time.Time `gorm:"not null"`

	// Last instant a vote is accepted, fixed at creation
	Deadline time.Time `gorm:"not null"`

	// Fingerprint of the public key the first submission was made under
	KeyFingerprint []byte

	Members []RoomMember `gorm:"foreignKey:RoomId;references:Id;constraint:OnDelete:CASCADE"`
}

// RoomMember is one member slot of an active room and its running total
type RoomMember struct {
	RoomId   []byte `gorm:"primaryKey"`
	MemberId uint64 `gorm:"primaryKey;autoIncrement:false"`
	Position uint32 `gorm:"not null"`

	// Empty until the first vote for this member arrives
	Total []byte
}

// FinalizedRoom is the immutable published aggregate of a room
type FinalizedRoom struct {
	Id               []byte    `gorm:"primaryKey"`
	Owner            []byte    `gorm:"not null"`
	Created          time.Time `gorm:"not null"`
	Deadline         time.Time `gorm:"not null"`
	Finalized        time.Time `gorm:"not null"`
	ParticipantCount uint64    `gorm:"not null"`

	Totals []FinalizedTotal `gorm:"foreignKey:RoomId;references:Id;constraint:OnDelete:CASCADE"`
}

// FinalizedTotal is the published ciphertext total of one room member
type FinalizedTotal struct {
	RoomId   []byte `gorm:"primaryKey"`
	MemberId uint64 `gorm:"primaryKey;autoIncrement:false"`
	Position uint32 `gorm:"not null"`
	Total    []byte `gorm:"not null"`
}

// Group is the working state of an active score group
type Group struct {
	Id             []byte    `gorm:"primaryKey"`
	Owner          []byte    `gorm:"not null"`
	Created        time.Time `gorm:"not null"`
	KeyFingerprint []byte
}

// Score is one submitted ciphertext of an active group
type Score struct {
	GroupId       []byte `gorm:"primaryKey"`
	ParticipantId []byte `gorm:"primaryKey"`
	Seq           uint64 `gorm:"not null"`
	Ciphertext    []byte `gorm:"not null"`
}

// FinalizedGroup is the immutable published sum and count of a group
type FinalizedGroup struct {
	Id        []byte    `gorm:"primaryKey"`
	Owner     []byte    `gorm:"not null"`
	Created   time.Time `gorm:"not null"`
	Finalized time.Time `gorm:"not null"`
	Sum       []byte    `gorm:"not null"`
	Count     uint64    `gorm:"not null"`
}

// Participant records that an identity submitted to a collection. Rows are
// kept after the collection is finalized.
type Participant struct {
	Variant       string `gorm:"primaryKey"`
	CollectionId  []byte `gorm:"primaryKey"`
	ParticipantId []byte `gorm:"primaryKey"`
	Seq           uint64 `gorm:"not null"`
}

// Initialize the database interface with database backend
// Returns a database interface and error
func newDatabase(username, password, dbName, address, port string, devMode bool) (database, error) {
	var err error
	var db *gorm.DB

	// Connect to the database if the correct information is provided
	if address != "" && port != "" {
		// Create the database connection
		connectString := fmt.Sprintf(
			"host=%s port=%s user=%s dbname=%s sslmode=disable",
			address, port, username, dbName)
		// Handle empty database password
		if len(password) > 0 {
			connectString += fmt.Sprintf(" password=%s", password)
		}
		db, err = gorm.Open(postgres.Open(connectString), &gorm.Config{
			Logger: logger.New(jww.TRACE, logger.Config{LogLevel: logger.Info}),
		})
	}

	// Return the map-backend interface
	// in the event there is a database error or information is not provided
	if (address == "" || port == "") || err != nil {

		var failReason string
		if err != nil {
			failReason = fmt.Sprintf("Unable to initialize database backend: %+v", err)
			jww.WARN.Printf(failReason)
		} else {
			failReason = "Database backend connection information not provided"
			jww.WARN.Printf(failReason)
		}

		if !devMode {
			jww.FATAL.Panicf("Cannot run in production "+
				"without a database: %s", failReason)
		}

		defer jww.INFO.Println("Map backend initialized successfully!")
		return database(newMapImpl()), nil
	}

	// Get and configure the internal database ConnPool
	sqlDb, err := db.DB()
	if err != nil {
		return database(&DatabaseImpl{}), errors.Errorf("Unable to configure database connection pool: %+v", err)
	}
	sqlDb.SetMaxIdleConns(10)
	sqlDb.SetMaxOpenConns(100)
	sqlDb.SetConnMaxLifetime(24 * time.Hour)

	if err = migrate(db); err != nil {
		return database(&DatabaseImpl{}), err
	}

	di := &DatabaseImpl{
		db: db,
	}

	jww.INFO.Println("Database backend initialized successfully!")
	return database(di), nil
}

// migrate initializes the database schema
func migrate(db *gorm.DB) error {
	// WARNING: Order is important. Do not change without database testing
	models := []interface{}{
		&Room{}, &RoomMember{}, &FinalizedRoom{}, &FinalizedTotal{},
		&Group{}, &Score{}, &FinalizedGroup{}, &Participant{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

func newMapImpl() *MapImpl {
	return &MapImpl{
		rooms:           make(map[id.ID]*Room),
		finalizedRooms:  make(map[id.ID]*FinalizedRoom),
		groups:          make(map[id.ID]*Group),
		scores:          make(map[id.ID][]*Score),
		finalizedGroups: make(map[id.ID]*FinalizedGroup),
		participants:    make(map[participantKey]map[id.ID]*Participant),
	}
}
