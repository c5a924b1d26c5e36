////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/room"
	"gitlab.com/elixxir/aggregator/testUtil"
	"gitlab.com/xx_network/primitives/id"
)

// Without a database, dev mode falls back to the map backend
func TestCreateInstance_DevMode(t *testing.T) {
	def := &Definition{
		Owner:   id.NewIdFromString("owner", id.User, t),
		DevMode: true,
	}

	i, err := CreateInstance(def)
	require.NoError(t, err)
	require.NotNil(t, i.GetStorage())
	require.NotNil(t, i.GetRoomManager())
	require.NotNil(t, i.GetGroupManager())
	require.Equal(t, room.DefaultVotingPeriod, i.GetRoomManager().GetVotingPeriod())
	require.NoError(t, i.Shutdown())
}

// Production without a database refuses to start
func TestCreateInstance_NoDatabase(t *testing.T) {
	def := &Definition{Owner: id.NewIdFromString("owner", id.User, t)}
	require.Panics(t, func() { _, _ = CreateInstance(def) })
}

func TestCreateInstance_NoOwner(t *testing.T) {
	_, err := CreateInstance(&Definition{DevMode: true})
	require.Error(t, err)
}

// Both protocols run side by side on one instance, in separate namespaces
func TestInstance_Scenario(t *testing.T) {
	owner := id.NewIdFromString("owner", id.User, t)
	clock := testUtil.NewManualClock(time.Unix(1650000000, 0))
	notifier := &testUtil.RecordingNotifier{}
	i := NewTestInstance(&Definition{Owner: owner, VotingPeriod: time.Hour},
		clock, notifier, t)
	pk, sk := testUtil.NewPaillierKeys(t)

	// The same id names one room and one group
	shared := id.NewIdFromString("shared", id.Generic, t)
	rooms := i.GetRoomManager()
	groups := i.GetGroupManager()

	require.NoError(t, rooms.Create(owner, shared, []uint64{1, 2, 3}))
	require.NoError(t, groups.CreateGroup(owner, shared))

	voters := []string{"alice", "bob"}
	for _, name := range voters {
		v := id.NewIdFromString(name, id.User, t)
		votes := make([]room.Vote, 3)
		for j, value := range []int64{100, 200, 300} {
			votes[j] = room.Vote{
				Member:     uint64(j + 1),
				Ciphertext: testUtil.Encrypt(t, pk, value),
			}
		}
		require.NoError(t, rooms.SubmitVotes(v, shared, votes, pk))
	}

	for name, score := range map[string]int64{"alice": 95, "bob": 105, "carol": 100} {
		v := id.NewIdFromString(name, id.User, t)
		require.NoError(t, groups.SubmitScore(v, shared, testUtil.Encrypt(t, pk, score), pk))
	}

	carol := id.NewIdFromString("carol", id.User, t)
	voted, err := rooms.HasVoted(shared, carol)
	require.NoError(t, err)
	require.False(t, voted, "group submission leaked into the room")

	// The voting period of the definition is honoured
	clock.Advance(2 * time.Hour)
	late := []room.Vote{{Member: 1, Ciphertext: testUtil.Encrypt(t, pk, 1)},
		{Member: 2, Ciphertext: testUtil.Encrypt(t, pk, 1)},
		{Member: 3, Ciphertext: testUtil.Encrypt(t, pk, 1)}}
	err = rooms.SubmitVotes(carol, shared, late, pk)
	require.ErrorIs(t, err, collection.ErrPeriodEnded)

	require.NoError(t, rooms.Finalize(owner, shared))
	require.NoError(t, groups.FinalizeGroup(owner, shared, pk))

	details, err := rooms.GetFinalizedDetails(shared)
	require.NoError(t, err)
	require.Equal(t, uint64(2), details.ParticipantCount)
	for j, expected := range []int64{200, 400, 600} {
		require.Equal(t, expected, testUtil.Decrypt(t, pk, sk, details.Totals[j].Total))
	}

	result, err := groups.GetResult(shared)
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.Count)
	require.Equal(t, int64(300), testUtil.Decrypt(t, pk, sk, result.Sum))

	require.Equal(t, 2, notifier.Count(collection.EventFinalized))
	require.Equal(t, 5, notifier.Count(collection.EventSubmitted))
}
